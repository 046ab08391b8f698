package metrics

import (
	"github.com/easycontract/easycontract/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a service exposing collectors of the default
// Prometheus registry (transaction lifecycle metrics among them) at
// /metrics. It returns nil if no logger is given.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	return newHTTPService("Prometheus", promhttp.Handler(), cfg, log)
}
