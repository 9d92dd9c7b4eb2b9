package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shalmon/dohapi/internal/config"
	"github.com/shalmon/dohapi/internal/dialer"
	"github.com/shalmon/dohapi/internal/dispatch"
	"github.com/shalmon/dohapi/internal/httpclient"
	"github.com/shalmon/dohapi/internal/output"
	"github.com/shalmon/dohapi/internal/provider"
)

// catalog replaces provider.Lookup when set. Tests point it at local servers.
var catalog func(id string) provider.Config

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger     *slog.Logger
	cfg        *config.Config
	format     output.Format
	dispatcher *dispatch.Dispatcher
	factory    *httpclient.Factory
}

// buildDeps resolves config, logger and output format, and prepares the
// client factory. No network activity happens here.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("--concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Timeout < 0 || cfg.CacheTTL < 0 || cfg.DoHRPS < 0 || cfg.DoHBurst < 0 {
		return nil, fmt.Errorf("--timeout, --cache-ttl, --doh-rps and --doh-burst must not be negative")
	}
	if cfg.Proxy != "" {
		if _, err := dialer.New(cfg.Proxy); err != nil {
			return nil, err
		}
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	factory := httpclient.NewFactory(httpclient.Options{
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		Proxy:      cfg.Proxy,
		Logger:     logger,
		Debug:      cfg.Verbose,
		QueryRPS:   cfg.DoHRPS,
		QueryBurst: cfg.DoHBurst,
		CacheTTL:   cfg.CacheTTL,
		Catalog:    catalog,
	})

	return &deps{
		logger:     logger,
		cfg:        cfg,
		format:     format,
		dispatcher: dispatch.New(factory, logger),
		factory:    factory,
	}, nil
}

// lookupProvider returns the provider a request for id will use.
func (d *deps) lookupProvider(id string) provider.Config {
	if catalog != nil {
		return catalog(id)
	}
	return provider.Lookup(id)
}

// close releases the clients built during the command.
func (d *deps) close() {
	if d.dispatcher == nil {
		return
	}
	d.logger.Debug("closing clients", "count", d.factory.Len())
	d.dispatcher.Close()
}

// writeResult formats and writes a command result to stdout.
func writeResult(stdout io.Writer, d *deps, result any) error {
	if err := output.Write(stdout, d.format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
