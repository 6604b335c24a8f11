// Wikia MCP Server - A Model Context Protocol server for Wikia/Fandom wikis
// Provides tools for searching sub-wikis and reading pages, sections and links
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/olgasafonova/wikia-mcp-server/internal/config"
	"github.com/olgasafonova/wikia-mcp-server/metrics"
	"github.com/olgasafonova/wikia-mcp-server/tools"
	"github.com/olgasafonova/wikia-mcp-server/tracing"
	"github.com/olgasafonova/wikia-mcp-server/wikia"
)

// recoverPanic logs a panic instead of crashing the server
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "wikia-mcp-server"
	ServerVersion = "1.0.0"
)

// options are the command line flags.
type options struct {
	configFile  string
	metricsAddr string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet(ServerName, pflag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "config file (default ./wikia.yaml or ~/.wikia/wikia.yaml)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", os.Getenv("WIKIA_METRICS_ADDR"), "serve Prometheus metrics on this address (e.g. :9090)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	// Bootstrap logger until the configured level is known.
	// Stderr only; stdout carries the MCP protocol.
	logger := newLogger(slog.LevelInfo)

	mgr, err := config.NewManager(opts.configFile, logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := mgr.Get()
	logger = newLogger(cfg.SlogLevel())

	traceCfg, err := tracing.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load tracing configuration: %w", err)
	}
	traceCfg.ServiceVersion = ServerVersion
	shutdownTracing, err := tracing.Setup(ctx, traceCfg)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	client := wikia.NewClient(cfg.ClientConfig(), logger)
	session, err := wikia.NewToolSession(client, cfg.SessionPages)
	if err != nil {
		return err
	}

	applied := cfg
	mgr.OnChange(func(c *config.Config) {
		defer recoverPanic(logger, "config reload")
		if err := c.Apply(client); err != nil {
			logger.Warn("Config change not applied", "error", err)
			return
		}
		if keys := c.RestartRequired(applied); len(keys) > 0 {
			logger.Warn("Config change needs a restart to take effect", "keys", keys)
		}
		applied = c
	})
	mgr.WatchConfig()

	if opts.metricsAddr != "" {
		go func() {
			defer recoverPanic(logger, "metrics server")
			if err := metrics.Serve(ctx, opts.metricsAddr, logger); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions(),
	})

	tools.NewHandlerRegistry(session, logger).RegisterAll(server)

	logger.Info("Starting Wikia MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"language", client.Language(),
		"rate_limit", cfg.RateLimit,
		"config_file", mgr.File(),
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// instructions describes the server and lists every registered tool.
func instructions() string {
	var b strings.Builder
	b.WriteString(`Wikia MCP Server provides read access to Wikia/Fandom sub-wikis (starwars, runescape, ...).

Every page tool needs the sub_wiki name plus a page title or page_id. Titles are
resolved through redirects by default; disambiguation pages fail with the list
of candidate titles, so pick one and call again.

Available tools:
`)
	for _, spec := range tools.AllTools {
		summary, _, _ := strings.Cut(spec.Description, "\n")
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, summary)
	}
	b.WriteString(`
Configure via wikia.yaml (hot-reloaded) or environment variables:
- WIKIA_LANGUAGE: Default language prefix (e.g. de)
- WIKIA_RATE_LIMIT / WIKIA_RATE_LIMIT_MIN_WAIT: Space out requests
- WIKIA_USER_AGENT: User-Agent sent to the wiki`)
	return b.String()
}
