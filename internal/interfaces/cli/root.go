// Package cli implements the caseguard command-line interface: global flag
// registration, configuration loading, logger initialization, pipeline
// wiring, and the analyze/verify/version subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	appcitation "github.com/lexcite/caseguard/internal/application/citation"
	"github.com/lexcite/caseguard/internal/config"
	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/infrastructure/cache"
	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	mprometheus "github.com/lexcite/caseguard/internal/infrastructure/monitoring/prometheus"
	"github.com/lexcite/caseguard/internal/intelligence/casename"
	"github.com/lexcite/caseguard/internal/intelligence/clustering"
	"github.com/lexcite/caseguard/internal/intelligence/reporters"
	"github.com/lexcite/caseguard/internal/intelligence/verify"
	"github.com/lexcite/caseguard/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Service      appcitation.Service
	OutputFormat string
	Verbose      bool
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "caseguard",
		Short:   "caseguard: legal citation extraction, verification, and clustering",
		Long:    "caseguard scans legal documents for case citations, extracts each\ncitation's case name from its local context, verifies citations against a\ncascade of authoritative sources, and groups parallel citations that refer\nto the same case.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./caseguard.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newVerifyCmd(),
		newVersionCmd(),
	)

	return cmd
}

// persistentPreRun initializes config, logger, and the analysis pipeline,
// then stores CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	// version and help need no pipeline.
	switch cmd.Name() {
	case "version", "help":
		return nil
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	svc, err := buildService(cfg, logger)
	if err != nil {
		return fmt.Errorf("pipeline initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Service:      svc,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)

	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{
		"./caseguard.yaml",
	}
	homeDir, err := os.UserHomeDir()
	if err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".caseguard", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/caseguard/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}

	// No config file found; env vars and defaults still apply.
	return config.LoadFromEnv()
}

// initLogger creates a logger configured for CLI usage (output to stderr so
// stdout stays clean for piped results).
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}

	return logging.NewLogger(logging.Config{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

// buildService wires the full pipeline from configuration: reporter library,
// extractor, HTTP client, source cascade, verification engine, clustering
// engine, and the application service.
func buildService(cfg *config.Config, logger logging.Logger) (appcitation.Service, error) {
	lib := reporters.NewLibrary()
	extractor := casename.NewExtractor(casename.DefaultConfig())

	httpOpts := []verify.HTTPClientOption{
		verify.WithCallTimeout(cfg.HTTP.CallTimeout),
		verify.WithRateLimits(cfg.HTTP.RateLimits, cfg.HTTP.DefaultRateLimit),
	}
	if cfg.HTTP.UserAgent != "" {
		httpOpts = append(httpOpts, verify.WithUserAgent(cfg.HTTP.UserAgent))
	}
	httpClient := verify.NewHTTPClient(logger.Named("http"), httpOpts...)

	sources := buildSources(cfg, httpClient)

	engineOpts := []verify.EngineOption{}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		remote := cache.NewRedis(client, logger.Named("cache"),
			cache.WithPrefix(cfg.Redis.KeyPrefix),
			cache.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
		engineOpts = append(engineOpts, verify.WithRemoteCache(remote))
	}

	svcOpts := []appcitation.ServiceOption{
		appcitation.WithWorkers(cfg.Pipeline.Workers),
		appcitation.WithMaxDocumentBytes(int(cfg.Pipeline.MaxDocumentBytes)),
	}

	if cfg.Monitoring.Enabled {
		collector, err := mprometheus.NewMetricsCollector(mprometheus.CollectorConfig{
			Namespace:            "caseguard",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		appMetrics := mprometheus.NewAppMetrics(collector)
		engineOpts = append(engineOpts, verify.WithMetrics(mprometheus.NewVerifyMetrics(appMetrics)))
		svcOpts = append(svcOpts, appcitation.WithMetrics(mprometheus.NewPipelineMetrics(appMetrics)))
		startMetricsServer(cfg.Monitoring.ListenAddr, collector, logger)
	}

	verifier := verify.NewEngine(cfg.Verify, sources, logger.Named("verify"), engineOpts...)
	clusterer := clustering.NewEngine(cfg.Clustering, lib, logger.Named("clustering"))

	return appcitation.NewService(lib, extractor, verifier, clusterer, logger.Named("pipeline"), svcOpts...), nil
}

// buildSources assembles the verification cascade in authority order, minus
// any sources disabled in configuration.
func buildSources(cfg *config.Config, client *verify.HTTPClient) []citation.Source {
	all := []citation.Source{
		verify.NewLookupSource(cfg.Sources.CourtListener, client),
		verify.NewSearchSource(cfg.Sources.CourtListener, client),
		verify.NewClusterSource(cfg.Sources.CourtListener, client),
		verify.NewJustiaSource(cfg.Sources.JustiaBaseURL, client),
		verify.NewCaseTextSource(cfg.Sources.CaseTextBaseURL, client),
		verify.NewWebSearchSource(cfg.Sources.WebSearchBaseURL, client),
	}

	if len(cfg.Sources.Disabled) == 0 {
		return all
	}

	disabled := make(map[string]bool, len(cfg.Sources.Disabled))
	for _, name := range cfg.Sources.Disabled {
		disabled[strings.ToLower(strings.TrimSpace(name))] = true
	}

	kept := all[:0]
	for _, s := range all {
		if !disabled[s.Name()] {
			kept = append(kept, s)
		}
	}
	return kept
}

// startMetricsServer exposes /metrics in the background for long-running
// batch invocations.
func startMetricsServer(addr string, collector mprometheus.MetricsCollector, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", logging.Err(err))
		}
	}()
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.CodeInvalidParam, "command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.CodeInvalidParam, "CLI context not initialized")
	}

	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}

	return nil
}

// PrintResult outputs data in the format selected by the --output flag.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch strings.ToLower(cliCtx.OutputFormat) {
	case "json":
		return printJSON(cmd, data)
	default:
		return printText(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printText outputs data as a simple string representation to stdout.
func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder

	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
