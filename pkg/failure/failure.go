/*
Package failure defines the closed set of error kinds returned by the
easycontract client stack.

Every error that crosses a package boundary is either a *Error or wraps one,
so callers can tell "fix your call" (InvalidKey, UnknownFunction, Encoding,
Decoding, EstimationFailed) from "try again later" (Node, Timeout) from "the
chain rejected this outcome" (TransactionReverted). Canceled is returned when
the caller stopped waiting itself. Errors are matched by kind with errors.Is
against the Err* sentinels.
*/
package failure

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind is the failure source of an Error.
type Kind byte

// Known failure kinds.
const (
	KindUnknown Kind = iota
	KindInvalidKey
	KindMalformedInterface
	KindUnknownFunction
	KindEncoding
	KindDecoding
	KindNode
	KindEstimationFailed
	KindTransactionReverted
	KindDeploymentFailed
	KindTimeout
	KindCanceled
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindInvalidKey:
		return "invalid key"
	case KindMalformedInterface:
		return "malformed interface"
	case KindUnknownFunction:
		return "unknown function"
	case KindEncoding:
		return "encoding error"
	case KindDecoding:
		return "decoding error"
	case KindNode:
		return "node error"
	case KindEstimationFailed:
		return "gas estimation failed"
	case KindTransactionReverted:
		return "transaction reverted"
	case KindDeploymentFailed:
		return "deployment failed"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a tagged error value. Err holds the underlying adapter error (if
// any), Hash is set for errors tied to a particular transaction.
type Error struct {
	Kind Kind
	Hash common.Hash
	Err  error
}

// Sentinels to be used with errors.Is, they match any Error of the same kind.
var (
	ErrInvalidKey          = &Error{Kind: KindInvalidKey}
	ErrMalformedInterface  = &Error{Kind: KindMalformedInterface}
	ErrUnknownFunction     = &Error{Kind: KindUnknownFunction}
	ErrEncoding            = &Error{Kind: KindEncoding}
	ErrDecoding            = &Error{Kind: KindDecoding}
	ErrNode                = &Error{Kind: KindNode}
	ErrEstimationFailed    = &Error{Kind: KindEstimationFailed}
	ErrTransactionReverted = &Error{Kind: KindTransactionReverted}
	ErrDeploymentFailed    = &Error{Kind: KindDeploymentFailed}
	ErrTimeout             = &Error{Kind: KindTimeout}
	ErrCanceled            = &Error{Kind: KindCanceled}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var s = e.Kind.String()
	if e.Hash != (common.Hash{}) {
		s += " (tx " + e.Hash.Hex() + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// NewInvalidKey wraps a private key parsing error.
func NewInvalidKey(err error) *Error { return newError(KindInvalidKey, err) }

// NewMalformedInterface wraps an interface description parsing error.
func NewMalformedInterface(err error) *Error { return newError(KindMalformedInterface, err) }

// NewUnknownFunction returns an error for a method missing from the interface.
func NewUnknownFunction(name string) *Error {
	return newError(KindUnknownFunction, fmt.Errorf("no method %q in contract interface", name))
}

// NewEncoding wraps call-data encoding error.
func NewEncoding(err error) *Error { return newError(KindEncoding, err) }

// NewDecoding wraps return data decoding error.
func NewDecoding(err error) *Error { return newError(KindDecoding, err) }

// NewNode wraps transport or node-level error.
func NewNode(err error) *Error { return newError(KindNode, err) }

// NewEstimationFailed wraps a node rejection of the gas estimation request.
func NewEstimationFailed(err error) *Error { return newError(KindEstimationFailed, err) }

// NewTransactionReverted returns an error for a mined transaction that has
// failed its execution.
func NewTransactionReverted(h common.Hash, status uint64) *Error {
	return &Error{
		Kind: KindTransactionReverted,
		Hash: h,
		Err:  fmt.Errorf("receipt status %d", status),
	}
}

// NewDeploymentFailed returns an error for a successful creation receipt
// that lacks the created contract address.
func NewDeploymentFailed(h common.Hash) *Error {
	return &Error{
		Kind: KindDeploymentFailed,
		Hash: h,
		Err:  errors.New("no contract address in receipt"),
	}
}

// NewTimeout returns an error for an expired receipt wait, the transaction
// itself may still be pending.
func NewTimeout(h common.Hash, err error) *Error {
	return &Error{Kind: KindTimeout, Hash: h, Err: err}
}

// NewCanceled returns an error for a receipt wait interrupted by the caller,
// the transaction itself may still be pending.
func NewCanceled(h common.Hash, err error) *Error {
	return &Error{Kind: KindCanceled, Hash: h, Err: err}
}

// KindOf returns the kind of the first Error found in err's chain or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the same request may succeed if repeated later.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNode, KindTimeout:
		return true
	default:
		return false
	}
}
