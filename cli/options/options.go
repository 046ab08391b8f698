/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/easycontract/easycontract/pkg/config"
	"github.com/easycontract/easycontract/pkg/registry"
	"github.com/easycontract/easycontract/pkg/rpcclient"
	"github.com/easycontract/easycontract/pkg/rpcclient/actor"
	"github.com/easycontract/easycontract/pkg/rpcclient/invoker"
	"github.com/easycontract/easycontract/pkg/rpcclient/waiter"
	"github.com/easycontract/easycontract/pkg/services/metrics"
	"github.com/easycontract/easycontract/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultTimeout is the default timeout used for RPC requests.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is the default timeout used for RPC requests that
	// require transaction awaiting.
	DefaultAwaitableTimeout = 2 * time.Minute
)

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// SecretKeyEnv is the environment variable that can be used instead of
// the --secret-key flag.
const SecretKeyEnv = "EASYCONTRACT_SECRET_KEY"

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	&cli.StringFlag{
		Name:    RPCEndpointFlag,
		Aliases: []string{"r"},
		Usage:   "RPC node address (overrides RPC.Endpoint of the configuration file)",
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"s"},
		Value:   DefaultTimeout,
		Usage:   "Timeout for the operation",
	},
}

// Historic is a flag for commands that can perform historic invocations.
var Historic = &cli.StringFlag{
	Name:  "historic",
	Usage: "Use historic state (block number)",
}

// ConfigFile is a flag for commands that use client configuration.
var ConfigFile = &cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the client configuration file (defaults are used if not set)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = &cli.BoolFlag{
	Name:    "debug",
	Aliases: []string{"d"},
	Usage:   "enable debug logging (overrides configuration)",
}

// SecretKey is a flag providing the signing key. The key is never printed.
var SecretKey = &cli.StringFlag{
	Name:  "secret-key",
	Usage: "hex-encoded secret key to sign transactions with (" + SecretKeyEnv + " environment variable is used if not set)",
}

// Await is a flag for commands that can wait for transactions to be mined.
var Await = &cli.BoolFlag{
	Name:  "await",
	Usage: "wait for the transaction to be mined and check its execution status",
}

// Registry is a flag overriding the registry location.
var Registry = &cli.StringFlag{
	Name:  "registry",
	Usage: "path to the deployed contract registry (overrides RegistryPath of the configuration file)",
}

// Common is a set of flags used by every command talking to the node.
var Common = append([]cli.Flag{ConfigFile, Debug}, RPC...)

var (
	errNoEndpoint      = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or set RPC.Endpoint in the configuration file")
	errInvalidHistoric = errors.New("invalid 'historic' parameter, not a block number")
	errNoSecretKey     = errors.New("no secret key specified, use option '--secret-key' or " + SecretKeyEnv + " environment variable")
)

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	return getTimeoutContext(ctx, ctx.Bool("await"))
}

// GetAwaitableTimeoutContext is similar to GetTimeoutContext, but uses
// DefaultAwaitableTimeout if the timeout is not set by user. It's intended
// for commands that always wait for transactions to be mined.
func GetAwaitableTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	return getTimeoutContext(ctx, true)
}

func getTimeoutContext(ctx *cli.Context, await bool) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	if !ctx.IsSet("timeout") && await {
		dur = DefaultAwaitableTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext loads the configuration file given via --config-file
// or returns the default configuration if it's not set.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	return config.Default(), nil
}

// GetRPCClient returns an RPC client instance for the given Context.
func GetRPCClient(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	endpoint := ctx.String(RPCEndpointFlag)
	if len(endpoint) == 0 {
		endpoint = cfg.ApplicationConfiguration.RPC.Endpoint
	}
	if len(endpoint) == 0 {
		return nil, cli.Exit(errNoEndpoint, 1)
	}
	rpcCfg := cfg.ApplicationConfiguration.RPC
	c, err := rpcclient.New(gctx, endpoint, rpcclient.Options{
		DialTimeout:     rpcCfg.DialTimeout,
		RequestTimeout:  rpcCfg.RequestTimeout,
		CacheSize:       rpcCfg.CacheSize,
		MaxConnsPerHost: rpcCfg.MaxConnsPerHost,
	})
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	return c, nil
}

// GetInvoker returns an invoker using the given RPC client, context and
// sender. It parses "--historic" parameter to adjust it.
func GetInvoker(c *rpcclient.Client, ctx *cli.Context, from *common.Address) (*invoker.Invoker, cli.ExitCoder) {
	historic := ctx.String("historic")
	if historic == "" {
		return invoker.New(c, from), nil
	}
	if index, err := strconv.ParseUint(historic, 10, 64); err == nil {
		return invoker.NewHistoricAtHeight(index, c, from), nil
	}
	return nil, cli.Exit(errInvalidHistoric, 1)
}

// GetRPCWithInvoker combines GetRPCClient with GetInvoker for cases where it's
// appropriate to do so.
func GetRPCWithInvoker(gctx context.Context, ctx *cli.Context, from *common.Address) (*rpcclient.Client, *invoker.Invoker, cli.ExitCoder) {
	c, err := GetRPCClient(gctx, ctx)
	if err != nil {
		return nil, nil, err
	}
	inv, err := GetInvoker(c, ctx, from)
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, inv, err
}

// HasSecretKey checks whether the signing key is provided.
func HasSecretKey(ctx *cli.Context) bool {
	return len(getSecretKey(ctx)) != 0
}

func getSecretKey(ctx *cli.Context) string {
	if secret := ctx.String("secret-key"); len(secret) != 0 {
		return secret
	}
	return os.Getenv(SecretKeyEnv)
}

// GetAccount returns the signing account for the key given via --secret-key
// or its environment variable.
func GetAccount(ctx *cli.Context) (*wallet.Account, cli.ExitCoder) {
	secret := getSecretKey(ctx)
	if len(secret) == 0 {
		return nil, cli.Exit(errNoSecretKey, 1)
	}
	acc, err := wallet.NewAccountFromSecretKey(secret)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	return acc, nil
}

// GetRPCWithActor returns an RPC client instance and Actor instance for the
// given context. Waiter settings are taken from the configuration, the
// logger is used by the Actor for debug output.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context, log *zap.Logger) (*rpcclient.Client, *actor.Actor, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, nil, cli.Exit(err, 1)
	}
	acc, exitErr := GetAccount(ctx)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	c, exitErr := GetRPCClient(gctx, ctx)
	if exitErr != nil {
		acc.Close()
		return nil, nil, exitErr
	}

	a, actorErr := actor.NewTuned(c, acc, actor.Options{
		Waiter: waiter.PollConfig{
			PollInterval: cfg.ApplicationConfiguration.Waiter.PollInterval,
			Timeout:      cfg.ApplicationConfiguration.Waiter.Timeout,
		},
		Logger: log,
	})
	if actorErr != nil {
		c.Close()
		acc.Close()
		return nil, nil, cli.Exit(fmt.Errorf("failed to create Actor: %w", actorErr), 1)
	}
	return c, a, nil
}

// GetRegistry opens the deployed contract registry at the location given
// via --registry or the configuration file.
func GetRegistry(ctx *cli.Context) (*registry.Registry, cli.ExitCoder) {
	path := ctx.String("registry")
	if len(path) == 0 {
		cfg, err := GetConfigFromContext(ctx)
		if err != nil {
			return nil, cli.Exit(err, 1)
		}
		path = cfg.ApplicationConfiguration.RegistryPath
	}
	reg, err := registry.Open(path)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	return reg, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), os.ModePerm); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// GetLogger loads the configuration and builds the logger for the command.
func GetLogger(ctx *cli.Context) (*zap.Logger, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	return log, nil
}

// StartServices starts Prometheus and pprof services if they're enabled in
// the configuration, the returned function shuts them down.
func StartServices(ctx *cli.Context, log *zap.Logger) (func(), cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	var services = []*metrics.Service{
		metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log),
		metrics.NewPprofService(cfg.ApplicationConfiguration.Pprof, log),
	}
	var started []*metrics.Service
	shutdown := func() {
		for _, s := range started {
			s.ShutDown()
		}
	}
	for _, s := range services {
		if s == nil {
			continue
		}
		if err := s.Start(); err != nil {
			shutdown()
			return nil, cli.Exit(fmt.Errorf("failed to start %s service: %w", s.Name(), err), 1)
		}
		started = append(started, s)
	}
	return shutdown, nil
}
