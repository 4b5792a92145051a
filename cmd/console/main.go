// Package main 管理后台命令行入口
//
//	console [-config dir] [-page n] [-limit n] <command> [subcommand] [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"research-admin/internal/apiclient"
	"research-admin/internal/config"
	"research-admin/internal/metrics"
	"research-admin/internal/session"
	"research-admin/internal/shared/infra"
	"research-admin/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	configDir := fs.String("config", "", "config directory (overrides CONFIG_DIR)")
	page := fs.Int("page", 1, "page number for list commands")
	limit := fs.Int("limit", 0, "page size for list commands (10, 25 or 50)")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs)
		return 2
	}

	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    cfg.Log.Output,
		Component: "console",
	})
	logger.Debug("config loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inf, err := infra.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		return 1
	}
	defer inf.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(metrics.DefaultNamespace, nil)
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logger.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	api := apiclient.New(cfg.API.BaseURL, inf.Session,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(logger.Named("apiclient")),
		apiclient.WithMetrics(m),
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(string) {
			fmt.Fprintln(os.Stderr, "Session expired. Run `console login` to sign in again.")
		})),
	)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		infra:   inf,
		api:     api,
		session: session.New(api, logger.Named("session")),
		metrics: m,
		out:     os.Stdout,
		page:    *page,
		limit:   *limit,
	}
	if a.limit == 0 {
		a.limit = cfg.Console.PageSize
	}

	if err := a.dispatch(ctx, fs.Args()); err != nil {
		var usageErr *usageError
		switch {
		case errors.As(err, &usageErr):
			fmt.Fprintln(os.Stderr, usageErr.Error())
			return 2
		case apiclient.IsCanceled(err):
			return 130
		default:
			fmt.Fprintf(os.Stderr, "console: %v\n", err)
			return 1
		}
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(fs.Output(), "Usage: console [flags] <command> [subcommand] [args]")
	fmt.Fprintln(fs.Output(), "\nFlags:")
	fs.PrintDefaults()
	fmt.Fprintln(fs.Output(), "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(fs.Output(), "  %-24s %s\n", c.name, c.summary)
	}
}
