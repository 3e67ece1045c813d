package dashboard

import "fmt"

var defaultRepository ResourcingRepository = NewDemoResourcingRepository(DefaultDemoSeed, nil)

// DefaultProviders builds the built-in providers over repo. charts may be nil
// to skip chart rendering.
func DefaultProviders(repo ResourcingRepository, charts *ChartRenderer) map[string]Provider {
	return map[string]Provider{
		WidgetSLAOverview:   NewSLAOverviewProvider(repo, charts),
		WidgetRequestFunnel: NewRequestFunnelProvider(repo, charts),
		WidgetSkillGap:      NewSkillGapProvider(repo, charts),
		WidgetUtilization:   NewUtilizationProvider(repo, charts),
		WidgetCollaboration: CollaborationProvider{},
		WidgetBenchAging:    NewBenchAgingProvider(repo, charts),
		WidgetBenchBurn:     NewBenchBurnProvider(repo, charts),
	}
}

// RegisterDefaultProviders (re)binds the built-in widgets to repo, replacing
// the demo providers NewRegistry installs.
func RegisterDefaultProviders(reg ProviderRegistry, repo ResourcingRepository, charts *ChartRenderer) error {
	if reg == nil {
		return fmt.Errorf("dashboard: registry is required")
	}
	for code, provider := range DefaultProviders(repo, charts) {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		if err := reg.RegisterProvider(code, provider); err != nil {
			return fmt.Errorf("dashboard: register provider %s: %w", code, err)
		}
	}
	return nil
}
