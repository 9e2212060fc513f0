package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/config"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger replaces the default logger according to the log flags.
// The returned logger is meant for the sql subsystem.
func SetupLogger() (sqlLogger *log.Logger) {
	var logger *log.Logger
	opts := []log.Option{
		log.WithCaller(true),
		log.AddCallerSkip(1),
		log.WithFilter(config.LogFilter),
	}
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.New(os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	}
	log.ResetDefault(logger)
	return sqlLogger.Named("sql")
}

// SetupTelemetry returns nil if telemetry is disabled or could not be set up
func SetupTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry", log.String("endpoint", config.TelemetryEndpoint))
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

// WaitTimeout parses config.WaitForServices
func WaitTimeout() time.Duration {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 15s", log.ErrorField(err))
		timeout = 15 * time.Second
	}
	return timeout
}

// RequestTimeout parses config.RequestTimeout, zero means the client default
func RequestTimeout() time.Duration {
	if config.RequestTimeout == "" {
		return 0
	}
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil {
		log.Warn("Invalid request timeout. Using default", log.ErrorField(err))
		return 0
	}
	return timeout
}

// Run executes fn with a context that is canceled on SIGINT/SIGTERM.
// The environment is closed when fn returns.
//
//nolint:whitespace // editor/linter issue
func Run(
	cmd *cobra.Command,
	fn func(ctx context.Context, env *Env) error,
) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := NewEnv(ctx)
	defer env.Close()
	return fn(ctx, env)
}
