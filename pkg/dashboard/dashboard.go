// Package dashboard assembles a ready-to-serve RMG dashboard from the
// components/dashboard building blocks.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	core "github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the core constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// Config selects the data source and tunes the assembled dashboard. Zero
// values fall back to the demo dataset and package defaults.
type Config struct {
	// Repository overrides the generated demo dataset.
	Repository core.ResourcingRepository
	Seed       int64
	AsOf       func() time.Time

	ReplyDelay     time.Duration
	ChatScheduler  collab.Scheduler
	ChartTheme     string
	ChartCacheTTL  time.Duration
	AssetsHost     string
	Manifests      []string
	Logger         *zap.Logger
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	Clock          func() time.Time
}

// App bundles the collaborators a transport needs.
type App struct {
	Service    *core.Service
	Store      *core.InMemoryWidgetStore
	Registry   *core.Registry
	Translator *core.CatalogTranslator
	Broadcast  *core.BroadcastHook
	Controller *core.Controller
	Executor   *httpapi.CommandExecutor
	Telemetry  core.ZapTelemetry
}

// New builds the store, registry, providers and service, seeds the default
// layout and installs every manifest in cfg.Manifests.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Seed == 0 {
		cfg.Seed = core.DefaultDemoSeed
	}
	repo := cfg.Repository
	if repo == nil {
		repo = core.NewDemoResourcingRepository(cfg.Seed, cfg.AsOf)
	}
	telemetry := core.NewZapTelemetry(cfg.Logger)

	chartOpts := []core.ChartOption{core.WithChartCache(core.NewChartCache(cfg.ChartCacheTTL))}
	if cfg.ChartTheme != "" {
		chartOpts = append(chartOpts, core.WithChartTheme(cfg.ChartTheme))
	}
	if cfg.AssetsHost != "" {
		chartOpts = append(chartOpts, core.WithChartAssetsHost(cfg.AssetsHost))
	}

	store := core.NewInMemoryWidgetStore(cfg.Clock)
	registry := core.NewRegistry()
	if err := core.RegisterDefaultProviders(registry, repo, core.NewChartRenderer(chartOpts...)); err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}

	translator := core.NewCatalogTranslator()
	broadcast := core.NewBroadcastHook()
	service := core.NewService(core.Options{
		WidgetStore: store,
		Providers:   registry,
		RefreshHook: broadcast,
		Telemetry:   telemetry,
		Translator:  translator,
		ChatOptions: collab.Options{
			Delay:     cfg.ReplyDelay,
			Scheduler: cfg.ChatScheduler,
			Clock:     cfg.Clock,
		},
		ActivityHooks:  cfg.ActivityHooks,
		ActivityConfig: cfg.ActivityConfig,
		Clock:          cfg.Clock,
	})

	if err := core.Bootstrap(ctx, service, store, registry); err != nil {
		service.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	for _, path := range cfg.Manifests {
		doc, err := core.ReadManifest(path)
		if err != nil {
			service.Close()
			return nil, err
		}
		if err := core.InstallManifest(ctx, service, store, registry, doc); err != nil {
			service.Close()
			return nil, fmt.Errorf("install manifest %s: %w", path, err)
		}
		doc.ApplyTranslations(translator)
	}

	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		service.Close()
		return nil, fmt.Errorf("template renderer: %w", err)
	}
	controller := core.NewController(core.ControllerOptions{
		Service:     service,
		Renderer:    renderer,
		Definitions: service,
		AssetsHost:  cfg.AssetsHost,
	})

	return &App{
		Service:    service,
		Store:      store,
		Registry:   registry,
		Translator: translator,
		Broadcast:  broadcast,
		Controller: controller,
		Executor:   httpapi.NewCommandExecutor(service, telemetry),
		Telemetry:  telemetry,
	}, nil
}

// WidgetIDs maps definition codes to the instance IDs placed in the default
// areas, in layout order.
func (a *App) WidgetIDs(ctx context.Context) (map[string][]string, error) {
	out := map[string][]string{}
	for _, area := range core.DefaultAreaCodes() {
		resolved, err := a.Store.ResolveArea(ctx, core.ResolveAreaInput{AreaCode: area})
		if err != nil {
			return nil, err
		}
		for _, w := range resolved.Widgets {
			out[w.DefinitionID] = append(out[w.DefinitionID], w.ID)
		}
	}
	return out, nil
}

// Close cancels pending chat replies and disconnects refresh subscribers.
func (a *App) Close() {
	a.Service.Close()
	a.Broadcast.Close()
}
