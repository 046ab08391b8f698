package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
	defaultCacheSize      = 128
)

// Client represents the middleman for executing JSON RPC calls
// to remote Ethereum nodes. Client is thread-safe and can be used from
// multiple goroutines, it holds no transaction-specific state.
type Client struct {
	endpoint *url.URL
	ctx      context.Context
	opts     Options

	rpc *rpc.Client
	eth *ethclient.Client

	// receipts and blocks store immutable data already returned by the
	// node, they're keyed by hash.
	receipts *lru.Cache
	blocks   *lru.Cache
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// CacheSize is the number of receipts and blocks kept in memory, 128
	// by default.
	CacheSize int
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
}

// New returns a new Client ready to use. HTTP(S) and WebSocket endpoints are
// supported, ctx is used for the connection setup and is returned from
// Context.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	rc, err := rpc.DialOptions(dialCtx, endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.Redacted(), err)
	}

	receipts, err := lru.New(opts.CacheSize)
	if err != nil {
		rc.Close()
		return nil, err
	}
	blocks, err := lru.New(opts.CacheSize)
	if err != nil {
		rc.Close()
		return nil, err
	}

	return &Client{
		endpoint: u,
		ctx:      ctx,
		opts:     opts,
		rpc:      rc,
		eth:      ethclient.NewClient(rc),
		receipts: receipts,
		blocks:   blocks,
	}, nil
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Context returns client instance context.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Close closes the underlying connection, the client can't be used after
// that.
func (c *Client) Close() {
	c.rpc.Close()
}

// requestContext bounds a single request by RequestTimeout.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opts.RequestTimeout)
}

// executionErrorCode is the JSON-RPC error code used by nodes for reverted
// executions.
const executionErrorCode = 3

// executionErrors are substrings of node error messages caused by the call
// itself rather than by the node state.
var executionErrors = []string{
	"revert",
	"insufficient funds",
	"gas required exceeds",
	"out of gas",
	"intrinsic gas",
	"invalid opcode",
}

// isExecutionError returns true for JSON-RPC errors caused by the executed
// call (reverts, gas and balance problems). Transport errors and other node
// errors (rate limits, missing state) are not execution ones.
func isExecutionError(err error) bool {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	if rpcErr.ErrorCode() == executionErrorCode {
		return true
	}
	msg := strings.ToLower(rpcErr.Error())
	for _, s := range executionErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
