// Command rmgdash serves the RMG resource-management dashboard over HTTP,
// in a terminal, or as a one-off layout snapshot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-rmg-dashboard/internal/config"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity/usersink"
	dashboardpkg "github.com/goliatone/go-rmg-dashboard/pkg/dashboard"
	"github.com/goliatone/go-rmg-dashboard/pkg/resourcing"
)

type cli struct {
	Config  string `short:"c" type:"path" help:"Config file (defaults to $RMG_DASHBOARD_CONFIG or ./rmgdash.yaml)."`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Serve    serveCmd    `cmd:"" default:"1" help:"Serve the dashboard over HTTP and WebSocket."`
	TUI      tuiCmd      `cmd:"" name:"tui" help:"Browse the dashboard in the terminal."`
	Snapshot snapshotCmd `cmd:"" help:"Print the rendered layout for one viewer."`
}

// runtime carries what every subcommand needs once flags are parsed.
type runtime struct {
	ctx    context.Context
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("rmgdash"),
		kong.Description("Resource-management dashboard for RMG desks."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(args.Config)
	kctx.FatalIfErrorf(err)
	if args.Verbose {
		cfg.Log.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &runtime{ctx: ctx, cfg: cfg}
	err = kctx.Run(rt)
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
	kctx.FatalIfErrorf(err)
}

// newLogger builds the production zap logger, at debug level when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("rmgdash: init logger: %w", err)
	}
	return logger, nil
}

// buildApp assembles the dashboard from configuration. Activity is forwarded
// to the logger through the go-users record mapping.
func (rt *runtime) buildApp() (*dashboardpkg.App, error) {
	cfg := rt.cfg
	logger := rt.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	appCfg := dashboardpkg.Config{
		Seed:           cfg.Dataset.Seed,
		ReplyDelay:     cfg.Chat.ReplyDelay,
		ChartTheme:     cfg.Charts.Theme,
		ChartCacheTTL:  cfg.Charts.CacheTTL,
		AssetsHost:     cfg.Charts.AssetsHost,
		Manifests:      cfg.Dataset.Manifests,
		Logger:         logger,
		ActivityHooks:  activity.Hooks{usersink.Hook{Sink: logSink{logger: logger.Named("activity")}}},
		ActivityConfig: activity.Config{Enabled: true, Channel: "rmg"},
	}
	if cfg.Upstream.Enabled() {
		client, err := resourcing.NewHTTPClient(resourcing.HTTPConfig{
			BaseURL: cfg.Upstream.URL,
			APIKey:  cfg.Upstream.APIKey,
		})
		if err != nil {
			return nil, err
		}
		appCfg.Repository = resourcing.NewRepository(client, resourcing.RepositoryOptions{TTL: cfg.Upstream.SnapshotTTL})
		logger.Info("using upstream resourcing API", zap.String("url", cfg.Upstream.URL))
	}
	return dashboardpkg.New(rt.ctx, appCfg)
}
