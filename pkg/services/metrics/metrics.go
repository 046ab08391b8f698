/*
Package metrics provides HTTP services exposing Prometheus metrics and pprof
profiles of the running client.
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/easycontract/easycontract/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
	started     sync.WaitGroup
}

// NewService configures logger and returns new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// newHTTPService creates a Service with one server per unique configured
// address, all of them sharing the handler. Nil is returned for nil logger.
func newHTTPService(name string, handler http.Handler, cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:    addr,
			Handler: handler,
		}
	}
	return NewService(name, srvs, cfg, log)
}

// Name returns the service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Start runs http service with the exposed endpoint on the configured port.
// All addresses are bound before any of them is served, so either every
// server starts or none does.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	listeners := make([]net.Listener, 0, len(ms.http))
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}
	for i, srv := range ms.http {
		ln := listeners[i]
		srv.Addr = ln.Addr().String() // set Addr to the actual address
		ms.log.Info("starting service", zap.String("endpoint", srv.Addr))
		ms.started.Add(1)
		go func(s *http.Server) {
			defer ms.started.Done()
			err := s.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", s.Addr), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// Addresses returns the addresses the service listens on (actual ones
// after Start).
func (ms *Service) Addresses() []string {
	res := make([]string, len(ms.http))
	for i, srv := range ms.http {
		res[i] = srv.Addr
	}
	return res
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.started.Wait()
	_ = ms.log.Sync()
}
