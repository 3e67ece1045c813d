package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// RegisterAreas ensures the dashboard areas exist in store.
func RegisterAreas(ctx context.Context, store WidgetStore) error {
	if store == nil {
		return errMissingWidgetStore
	}
	for _, area := range DefaultAreaDefinitions() {
		if _, err := store.EnsureArea(ctx, area); err != nil {
			return fmt.Errorf("register area %s: %w", area.Code, err)
		}
	}
	return nil
}

// RegisterDefinitions ensures the built-in widget definitions exist in store
// and, when registry is set, in the registry.
func RegisterDefinitions(ctx context.Context, store WidgetStore, registry ProviderRegistry) error {
	if store == nil {
		return errMissingWidgetStore
	}
	for _, def := range DefaultWidgetDefinitions() {
		if _, err := store.EnsureDefinition(ctx, def); err != nil {
			return fmt.Errorf("register definition %s: %w", def.Code, err)
		}
		if registry != nil {
			if err := registry.RegisterDefinition(def); err != nil {
				return fmt.Errorf("register definition in registry %s: %w", def.Code, err)
			}
		}
	}
	return nil
}

// SeedLayout places the starter widgets. Definitions already present in their
// target area are skipped, so seeding twice is harmless.
func SeedLayout(ctx context.Context, service *Service) error {
	return SeedWidgets(ctx, service, DefaultSeedWidgets())
}

// SeedWidgets places requests, skipping definitions already in their area.
func SeedWidgets(ctx context.Context, service *Service, requests []AddWidgetRequest) error {
	if service == nil {
		return errors.New("dashboard: service is required to seed layout")
	}
	store, err := service.widgetStore()
	if err != nil {
		return err
	}
	placed := map[string]map[string]bool{}
	var seedErr error
	for _, req := range requests {
		if _, ok := placed[req.AreaCode]; !ok {
			resolved, err := store.ResolveArea(ctx, ResolveAreaInput{AreaCode: req.AreaCode})
			if err != nil {
				seedErr = errors.Join(seedErr, err)
				continue
			}
			placed[req.AreaCode] = map[string]bool{}
			for _, w := range resolved.Widgets {
				placed[req.AreaCode][w.DefinitionID] = true
			}
		}
		if placed[req.AreaCode][req.DefinitionID] {
			continue
		}
		if err := service.AddWidget(ctx, req); err != nil {
			seedErr = errors.Join(seedErr, err)
			continue
		}
		placed[req.AreaCode][req.DefinitionID] = true
	}
	return seedErr
}

// Bootstrap registers areas and definitions and seeds the starter layout.
func Bootstrap(ctx context.Context, service *Service, store WidgetStore, registry ProviderRegistry) error {
	if err := RegisterAreas(ctx, store); err != nil {
		return err
	}
	if err := RegisterDefinitions(ctx, store, registry); err != nil {
		return err
	}
	return SeedLayout(ctx, service)
}

// InstallManifest registers a widget pack in store and registry, then seeds
// its placements.
func InstallManifest(ctx context.Context, service *Service, store WidgetStore, registry *Registry, doc *WidgetManifestDocument) error {
	if store == nil {
		return errMissingWidgetStore
	}
	if err := registry.LoadManifestDocument(doc); err != nil {
		return err
	}
	for _, widget := range doc.Widgets {
		def, _ := registry.Definition(widget.Definition.Code)
		if _, err := store.EnsureDefinition(ctx, def); err != nil {
			return fmt.Errorf("register manifest definition %s: %w", def.Code, err)
		}
	}
	return SeedWidgets(ctx, service, doc.SeedRequests())
}
