package waiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// DefaultPollInterval is the time between subsequent receipt requests used
// if nothing else is configured.
const DefaultPollInterval = 4 * time.Second

var (
	// ErrContextDone is returned when Waiter context has been done in the middle
	// of transaction awaiting process and no result was received yet. The
	// transaction itself may still be pending. It's always wrapped into
	// failure.ErrTimeout (expired deadline) or failure.ErrCanceled.
	ErrContextDone = errors.New("waiter context done")
	// ErrAwaitingNotSupported is returned from Wait method if Waiter instance
	// doesn't support transaction awaiting. It's compatible with [errors.ErrUnsupported].
	ErrAwaitingNotSupported = fmt.Errorf("%w: awaiting", errors.ErrUnsupported)
)

type (
	// Waiter is an interface providing transaction awaiting functionality.
	Waiter interface {
		// Wait allows to wait until transaction will be mined. It can be
		// used as a wrapper for Send and accepts transaction hash and an
		// error. It returns transaction receipt or an error if it can't be
		// obtained. Notice that "already known" err value is not treated as
		// an error by this routine because it means that the transaction
		// is already in the node's pool, so it can be waited for in a usual
		// way.
		Wait(ctx context.Context, h common.Hash, err error) (*types.Receipt, error)
		// WaitAny waits until at least one of the specified transactions is
		// mined. It returns the receipt of this transaction. It uses
		// underlying RPCPollingBased context to interrupt awaiting process,
		// but additional ctx can be passed as an argument for the same
		// purpose.
		WaitAny(ctx context.Context, hashes ...common.Hash) (*types.Receipt, error)
	}
	// RPCPollingBased is an interface that enables transaction awaiting functionality
	// based on periodical receipt polls.
	RPCPollingBased interface {
		// Context should return the RPC client context to be able to gracefully
		// shut down all running processes (if so).
		Context() context.Context
		// GetTransactionReceipt must return nil receipt and no error for
		// transactions not yet known.
		GetTransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error)
	}
)

// Null is a Waiter stub that doesn't support transaction awaiting functionality.
type Null struct{}

// PollingBased is a polling-based Waiter.
type PollingBased struct {
	polling RPCPollingBased
	config  PollConfig
	log     *zap.Logger
}

// PollConfig is a configuration for PollingBased waiter.
type PollConfig struct {
	// PollInterval is a time interval between subsequent polls. If not set,
	// DefaultPollInterval is used.
	PollInterval time.Duration `yaml:"PollInterval"`
	// Timeout limits the time of a single Wait call, it's not limited by
	// default (but can still be cancelled via context).
	Timeout time.Duration `yaml:"Timeout"`
}

// IsAlreadyKnown checks for the error returned by Ethereum nodes on
// resubmission of a pooled transaction. Such a transaction is accepted and
// can be waited for.
func IsAlreadyKnown(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already known")
}

// NewNull creates an instance of Waiter stub.
func NewNull() Null {
	return Null{}
}

// Wait implements Waiter interface.
func (Null) Wait(ctx context.Context, h common.Hash, err error) (*types.Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// WaitAny implements Waiter interface.
func (Null) WaitAny(ctx context.Context, hashes ...common.Hash) (*types.Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// NewPollingBased creates an instance of Waiter supporting poll-based
// transaction awaiting with the default configuration.
func NewPollingBased(waiter RPCPollingBased) *PollingBased {
	return NewCustomPollingBased(waiter, PollConfig{}, nil)
}

// NewCustomPollingBased creates an instance of Waiter supporting poll-based
// transaction awaiting. Poll options may be specified via config parameter,
// log is optional.
func NewCustomPollingBased(waiter RPCPollingBased, config PollConfig, log *zap.Logger) *PollingBased {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PollingBased{
		polling: waiter,
		config:  config,
		log:     log,
	}
}

// Config returns the effective waiter configuration.
func (w *PollingBased) Config() PollConfig {
	return w.config
}

// Wait implements Waiter interface.
func (w *PollingBased) Wait(ctx context.Context, h common.Hash, err error) (*types.Receipt, error) {
	if err != nil && !IsAlreadyKnown(err) {
		return nil, err
	}
	return w.WaitAny(ctx, h)
}

// WaitAny implements Waiter interface. Receipts are requested once per
// PollInterval (the first request is made after the first interval passes)
// and returned as is, no status checks are made. Absent receipt means the
// transaction is not yet mined, any other node error is returned
// immediately. failure.ErrTimeout is returned if Timeout is configured and
// no receipt was found during it.
func (w *PollingBased) WaitAny(ctx context.Context, hashes ...common.Hash) (*types.Receipt, error) {
	if len(hashes) == 0 {
		return nil, errors.New("no transactions to wait for")
	}
	var (
		attempt  int
		start    = time.Now()
		timeoutC <-chan time.Time
	)
	if w.config.Timeout > 0 {
		timer := time.NewTimer(w.config.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			attempt++
			for _, h := range hashes {
				r, err := w.polling.GetTransactionReceipt(ctx, h)
				if err != nil {
					if ctx.Err() != nil {
						return nil, contextDone(ctx, h)
					}
					return nil, fmt.Errorf("failed to get receipt for %s: %w", h.Hex(), err)
				}
				if r != nil {
					w.log.Debug("transaction mined",
						zap.Stringer("hash", h),
						zap.Uint64("status", r.Status),
						zap.Int("attempts", attempt))
					return r, nil
				}
			}
			w.log.Debug("no receipt yet",
				zap.Stringer("hash", hashes[0]),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)))
		case <-timeoutC:
			return nil, failure.NewTimeout(hashes[0], fmt.Errorf("no receipt after %s", w.config.Timeout))
		case <-w.polling.Context().Done():
			return nil, contextDone(w.polling.Context(), hashes[0])
		case <-ctx.Done():
			return nil, contextDone(ctx, hashes[0])
		}
	}
}

// contextDone returns the failure for the wait interrupted by ctx.
func contextDone(ctx context.Context, h common.Hash) error {
	err := fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.NewTimeout(h, err)
	}
	return failure.NewCanceled(h, err)
}
