package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kroma-labs/endpoint-go/apiclient"
	"github.com/kroma-labs/endpoint-go/example/posts/internal/config"
	"github.com/kroma-labs/endpoint-go/example/posts/internal/posts"
	"github.com/kroma-labs/endpoint-go/example/posts/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	baseURL   string
	mock      bool
	debug     bool
	curl      bool
	logFile   string
	telemetry bool
}

var (
	opts   options
	client *apiclient.Client
	log    = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	shutdownTelemetry func(context.Context) error
	metricsServer     *http.Server
)

var rootCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse JSONPlaceholder posts through typed endpoints",
	Long: `posts is a small client for the JSONPlaceholder API built on apiclient.

Use --mock to answer every read from embedded fixtures instead of the network.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command; an interrupt cancels the call in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.baseURL, "base-url", config.DefaultBaseURL, "API base URL")
	f.BoolVar(&opts.mock, "mock", false, "serve responses from embedded fixtures")
	f.BoolVar(&opts.debug, "debug", false, "log requests and responses")
	f.BoolVar(&opts.curl, "curl", false, "include cURL commands in debug logs")
	f.StringVar(&opts.logFile, "log-file", "", "write debug logs to a rotated file")
	f.BoolVar(&opts.telemetry, "telemetry", false, "export traces over OTLP and serve Prometheus metrics on "+config.MetricsPort)

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(titlesCmd)
	rootCmd.AddCommand(createCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if opts.telemetry {
		mux := http.NewServeMux()
		shutdown, err := telemetry.Setup(cmd.Context(), mux)
		if err != nil {
			return err
		}
		shutdownTelemetry = shutdown

		metricsServer = &http.Server{Addr: config.MetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	client = newClient(opts, log)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
	return shutdownTelemetry(ctx)
}

func newClient(o options, logger zerolog.Logger) *apiclient.Client {
	cfg := apiclient.DefaultConfig()
	cfg.Timeout = config.DefaultTimeout * time.Second

	clientOpts := []apiclient.Option{
		apiclient.WithBaseURL(o.baseURL),
		apiclient.WithConfig(cfg),
		apiclient.WithServiceName(config.ServiceName),
		apiclient.WithDefaultHeader("Accept", "application/json"),
		apiclient.WithRequestID(""),
		apiclient.WithRateLimit(apiclient.RateLimitConfig{
			RequestsPerSecond: config.RequestsPerSecond,
			Burst:             config.Burst,
			WaitOnLimit:       true,
		}),
		apiclient.WithLogger(logger),
		apiclient.WithDebug(o.debug),
		apiclient.WithGenerateCurl(o.curl),
	}
	if o.logFile != "" {
		clientOpts = append(clientOpts, apiclient.WithDebugLogFile(apiclient.LogFileConfig{
			Filename:   o.logFile,
			MaxSizeMB:  config.DebugLogMaxSizeMB,
			MaxBackups: config.DebugLogMaxBackups,
		}))
	}
	if o.mock {
		registry := apiclient.NewRegistry()
		if !posts.RegisterFixtures(registry) {
			logger.Warn().Msg("some fixtures failed to load")
		}
		clientOpts = append(clientOpts, apiclient.WithHijacker(registry))
	}

	return apiclient.New(clientOpts...)
}
