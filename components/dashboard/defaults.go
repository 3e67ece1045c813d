package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

// Dashboard areas.
const (
	AreaMain    = "rmg.dashboard.main"
	AreaSidebar = "rmg.dashboard.sidebar"
	AreaFooter  = "rmg.dashboard.footer"
)

// Built-in widget codes.
const (
	WidgetSLAOverview   = "rmg.widget.sla_overview"
	WidgetRequestFunnel = "rmg.widget.request_funnel"
	WidgetSkillGap      = "rmg.widget.skill_gap"
	WidgetUtilization   = "rmg.widget.utilization"
	WidgetCollaboration = "rmg.widget.collaboration"
	WidgetBenchAging    = "rmg.widget.bench_aging"
	WidgetBenchBurn     = "rmg.widget.bench_burn"
)

// Filter keys declared by the built-in widgets.
const (
	FilterSLA          = "sla"
	FilterSource       = "source"
	FilterWindow       = "window"
	FilterSkillView    = "view"
	FilterRegion       = "region"
	FilterConversation = "conversation"
	FilterBucket       = "bucket"
	FilterLocation     = "location"
	FilterPeriod       = "period"
)

var defaultAreaDefinitions = []WidgetAreaDefinition{
	{Code: AreaMain, Name: "RMG Dashboard (Main)", Description: "Request pipeline and utilization"},
	{Code: AreaSidebar, Name: "RMG Dashboard (Sidebar)", Description: "Collaboration and skills"},
	{Code: AreaFooter, Name: "RMG Dashboard (Footer)", Description: "Bench reports"},
}

var allOption = FilterOption{Value: FilterAll, Label: "All"}

func withAll(options ...FilterOption) []FilterOption {
	return append([]FilterOption{allOption}, options...)
}

var slaOptions = []FilterOption{
	{Value: string(SLAOnTrack), Label: "On track"},
	{Value: string(SLAAtRisk), Label: "At risk"},
	{Value: string(SLABreached), Label: "Breached"},
	{Value: string(SLAMet), Label: "Met"},
	{Value: string(SLAClosed), Label: "Closed"},
}

var sourceOptions = []FilterOption{
	{Value: string(SourceProject), Label: "Project"},
	{Value: string(SourceOpportunity), Label: "Opportunity"},
	{Value: string(SourceInternal), Label: "Internal"},
}

var statusOptions = []FilterOption{
	{Value: string(StatusOpen), Label: "Open"},
	{Value: string(StatusSourcing), Label: "Sourcing"},
	{Value: string(StatusShortlisted), Label: "Shortlisted"},
	{Value: string(StatusInterviewing), Label: "Interviewing"},
	{Value: string(StatusAllocated), Label: "Allocated"},
	{Value: string(StatusOnHold), Label: "On hold"},
	{Value: string(StatusCancelled), Label: "Cancelled"},
}

var windowOptions = []FilterOption{
	{Value: "7d", Label: "Last 7 days"},
	{Value: "30d", Label: "Last 30 days"},
	{Value: "90d", Label: "Last 90 days"},
	allOption,
}

var skillViewOptions = withAll(
	FilterOption{Value: SkillTabShortage, Label: "Shortage"},
	FilterOption{Value: SkillTabSurplus, Label: "Surplus"},
	FilterOption{Value: SkillTabBalanced, Label: "Balanced"},
)

var conversationOptions = []FilterOption{
	{Value: string(collab.ConversationRMG), Label: "RMG"},
	{Value: string(collab.ConversationTAG), Label: "TAG"},
	{Value: string(collab.ConversationDelivery), Label: "Delivery"},
}

var bucketOptions = withAll(
	FilterOption{Value: Aging0To30, Label: "0-30 days"},
	FilterOption{Value: Aging31To60, Label: "31-60 days"},
	FilterOption{Value: Aging61To90, Label: "61-90 days"},
	FilterOption{Value: AgingOver90, Label: "90+ days"},
)

var periodOptions = []FilterOption{
	{Value: BurnToDate, Label: "To date"},
	{Value: BurnMonthly, Label: "Monthly run rate"},
	{Value: BurnQuarterly, Label: "Quarterly run rate"},
}

// OptionLabel returns the display label of value within options.
func OptionLabel(options []FilterOption, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code: WidgetSLAOverview,
		Name: "Request SLA Overview",
		NameLocalized: map[string]string{
			"es": "Resumen de SLA de solicitudes",
		},
		Description: "Open resource requests by SLA status",
		Category:    "requests",
		Filters: []FilterSpec{
			{Key: FilterSLA, Label: "SLA", Kind: FilterKindTab, Options: withAll(slaOptions...), Default: FilterAll},
			{Key: FilterSource, Label: "Source", Kind: FilterKindSelect, Options: withAll(sourceOptions...), Default: FilterAll},
		},
	},
	{
		Code: WidgetRequestFunnel,
		Name: "Request Funnel",
		NameLocalized: map[string]string{
			"es": "Embudo de solicitudes",
		},
		Description: "Requests per workflow stage and conversion",
		Category:    "requests",
		Filters: []FilterSpec{
			{Key: FilterSource, Label: "Source", Kind: FilterKindSelect, Options: withAll(sourceOptions...), Default: FilterAll},
			{Key: FilterWindow, Label: "Raised", Kind: FilterKindSelect, Options: windowOptions, Default: "90d"},
		},
	},
	{
		Code:        WidgetSkillGap,
		Name:        "Skill Gap",
		Description: "Open demand against available supply per skill",
		Category:    "skills",
		Filters: []FilterSpec{
			{Key: FilterSkillView, Label: "View", Kind: FilterKindTab, Options: skillViewOptions, Default: SkillTabShortage},
		},
	},
	{
		Code:        WidgetUtilization,
		Name:        "Utilization",
		Description: "Planned, allocated, billed and logged hours per region",
		Category:    "utilization",
		Filters: []FilterSpec{
			{Key: FilterRegion, Label: "Region", Kind: FilterKindSelect, Options: withAll(DemoRegions...), Default: FilterAll},
		},
	},
	{
		Code: WidgetCollaboration,
		Name: "Collaboration",
		NameLocalized: map[string]string{
			"es": "Colaboración",
		},
		Description: "Chat with RMG, TAG and delivery teams",
		Category:    "collaboration",
		Filters: []FilterSpec{
			{Key: FilterConversation, Label: "Team", Kind: FilterKindTab, Options: conversationOptions, Default: string(collab.ConversationRMG)},
		},
	},
	{
		Code:        WidgetBenchAging,
		Name:        "Bench Aging",
		Description: "Bench headcount by days without allocation",
		Category:    "bench",
		Filters: []FilterSpec{
			{Key: FilterBucket, Label: "Aging", Kind: FilterKindTab, Options: bucketOptions, Default: FilterAll},
			{Key: FilterLocation, Label: "Location", Kind: FilterKindSelect, Options: withAll(DemoLocations...), Default: FilterAll},
		},
	},
	{
		Code:        WidgetBenchBurn,
		Name:        "Bench Burn",
		Description: "Cost of unallocated staff",
		Category:    "bench",
		Filters: []FilterSpec{
			{Key: FilterPeriod, Label: "Period", Kind: FilterKindTab, Options: periodOptions, Default: BurnToDate},
			{Key: FilterLocation, Label: "Location", Kind: FilterKindSelect, Options: withAll(DemoLocations...), Default: FilterAll},
		},
	},
}

func init() {
	for i := range defaultWidgetDefinitions {
		defaultWidgetDefinitions[i].Schema = filterSchema(defaultWidgetDefinitions[i].Filters)
	}
}

// filterSchema publishes the filter options as configuration enums so an
// instance can preselect them, plus the presentation keys every widget takes.
func filterSchema(filters []FilterSpec) map[string]any {
	props := map[string]any{
		"title": map[string]any{"type": "string"},
		"theme": map[string]any{
			"type": "string",
			"enum": []string{
				types.ThemeWesteros, types.ThemeWalden, types.ThemeWonderland,
				types.ThemeMacarons, types.ThemeRoma, types.ThemeShine,
				types.ThemeVintage, types.ThemeInfographic, types.ThemeEssos,
				types.ThemeChalk, types.ThemePurplePassion, types.ThemeRomantic,
			},
		},
	}
	for _, f := range filters {
		props[f.Key] = map[string]any{
			"type":    "string",
			"enum":    f.Values(),
			"default": f.DefaultValue(),
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

var defaultSeedConfigs = []AddWidgetRequest{
	{DefinitionID: WidgetSLAOverview, AreaCode: AreaMain, Configuration: map[string]any{}},
	{DefinitionID: WidgetRequestFunnel, AreaCode: AreaMain, Configuration: map[string]any{FilterWindow: "90d"}},
	{DefinitionID: WidgetUtilization, AreaCode: AreaMain, Configuration: map[string]any{}},
	{DefinitionID: WidgetSkillGap, AreaCode: AreaSidebar, Configuration: map[string]any{}},
	{DefinitionID: WidgetCollaboration, AreaCode: AreaSidebar, Configuration: map[string]any{}},
	{DefinitionID: WidgetBenchAging, AreaCode: AreaFooter, Configuration: map[string]any{}},
	{DefinitionID: WidgetBenchBurn, AreaCode: AreaFooter, Configuration: map[string]any{}},
}

// DefaultAreaDefinitions returns copies of built-in area definitions.
func DefaultAreaDefinitions() []WidgetAreaDefinition {
	out := make([]WidgetAreaDefinition, len(defaultAreaDefinitions))
	copy(out, defaultAreaDefinitions)
	return out
}

// DefaultAreaCodes lists the built-in area codes in render order.
func DefaultAreaCodes() []string {
	out := make([]string, len(defaultAreaDefinitions))
	for i, area := range defaultAreaDefinitions {
		out[i] = area.Code
	}
	return out
}

// DefaultWidgetDefinitions returns copies of built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultSeedWidgets returns the starter layout: every built-in widget once.
func DefaultSeedWidgets() []AddWidgetRequest {
	out := make([]AddWidgetRequest, len(defaultSeedConfigs))
	for i, cfg := range defaultSeedConfigs {
		copyCfg := cfg
		copyCfg.Configuration = make(map[string]any, len(cfg.Configuration))
		for k, v := range cfg.Configuration {
			copyCfg.Configuration[k] = v
		}
		out[i] = copyCfg
	}
	return out
}
