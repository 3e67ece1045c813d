package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

func providerContext(code string, filters map[string]string) WidgetContext {
	def := WidgetDefinition{}
	for _, d := range DefaultWidgetDefinitions() {
		if d.Code == code {
			def = d
		}
	}
	state := ViewState{Filters: filters}
	return WidgetContext{
		Instance: WidgetInstance{ID: "w-" + code, DefinitionID: code},
		Viewer:   ViewerContext{UserID: "rm-1"},
		Filters:  ResolveFilters(def.Filters, nil, state),
		View:     state,
	}
}

func TestSLAOverviewProviderFiltersAlterData(t *testing.T) {
	provider := NewSLAOverviewProvider(fixtureRepository(), nil)
	ctx := context.Background()

	all, err := provider.Fetch(ctx, providerContext(WidgetSLAOverview, nil))
	require.NoError(t, err)
	assert.Equal(t, 6, all["total"])
	assert.Len(t, all["rows"], 6)

	breached, err := provider.Fetch(ctx, providerContext(WidgetSLAOverview, map[string]string{FilterSLA: "breached"}))
	require.NoError(t, err)
	rows := breached["rows"].([]RequestRow)
	require.Len(t, rows, 2)
	assert.Equal(t, "REQ-3", rows[0].ID)
	assert.Equal(t, SLABreached, rows[0].SLA)
	assert.Equal(t, -2, rows[0].DaysToDue)
	assert.Equal(t, 6, breached["total"], "the SLA tab lists a subset but keeps the counts")

	project, err := provider.Fetch(ctx, providerContext(WidgetSLAOverview, map[string]string{FilterSource: "project"}))
	require.NoError(t, err)
	assert.Equal(t, 3, project["total"])
	assert.Equal(t, 3, SumCounts(project["counts"].([]CategoryCount)))
}

func TestSLAOverviewProviderDetailAndEscalation(t *testing.T) {
	provider := NewSLAOverviewProvider(fixtureRepository(), nil)
	provider.newID = func() string { return "ack-1" }
	ctx := context.Background()
	meta := providerContext(WidgetSLAOverview, nil)

	detail, err := provider.Detail(ctx, meta, "REQ-2")
	require.NoError(t, err)
	assert.Equal(t, "request", detail["kind"])
	assert.Equal(t, "Sourcing", detail["status_label"])
	assert.Equal(t, true, detail["escalatable"])

	met, err := provider.Detail(ctx, meta, "REQ-4")
	require.NoError(t, err)
	assert.Equal(t, false, met["escalatable"])

	_, err = provider.Detail(ctx, meta, "REQ-404")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	ack, err := provider.Escalate(ctx, meta, EscalationRequest{RequestID: " REQ-3 ", Target: "TAG", Note: "client escalation"})
	require.NoError(t, err)
	assert.Equal(t, "ack-1", ack.ID)
	assert.Equal(t, EscalateToTAG, ack.Target)
	assert.Equal(t, "Talent Acquisition", ack.Team)
	assert.True(t, strings.HasSuffix(ack.Message, ": client escalation"), ack.Message)

	_, err = provider.Escalate(ctx, meta, EscalationRequest{RequestID: "REQ-3", Target: "hr"})
	assert.ErrorIs(t, err, ErrInvalidEscalationTarget)
	_, err = provider.Escalate(ctx, meta, EscalationRequest{RequestID: "REQ-999", Target: "rmg"})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRequestFunnelProviderWindow(t *testing.T) {
	provider := NewRequestFunnelProvider(fixtureRepository(), nil)
	ctx := context.Background()

	def, err := provider.Fetch(ctx, providerContext(WidgetRequestFunnel, nil))
	require.NoError(t, err)
	assert.Equal(t, 5, def["total"], "default 90d window drops REQ-6")

	all, err := provider.Fetch(ctx, providerContext(WidgetRequestFunnel, map[string]string{FilterWindow: FilterAll}))
	require.NoError(t, err)
	assert.Equal(t, 6, all["total"])
	assert.InDelta(t, 16.7, all["conversion_rate"].(float64), 0.001)

	meta := providerContext(WidgetRequestFunnel, map[string]string{FilterWindow: "30d"})
	stage, err := provider.Detail(ctx, meta, "sourcing")
	require.NoError(t, err)
	assert.Len(t, stage["requests"], 1)
	shortlisted, err := provider.Detail(ctx, meta, "shortlisted")
	require.NoError(t, err)
	assert.Empty(t, shortlisted["requests"], "stage detail follows the funnel's window")

	_, err = provider.Detail(ctx, meta, "unknown")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSkillGapProviderTabs(t *testing.T) {
	provider := NewSkillGapProvider(fixtureRepository(), nil)
	ctx := context.Background()

	shortage, err := provider.Fetch(ctx, providerContext(WidgetSkillGap, nil))
	require.NoError(t, err)
	assert.Equal(t, SkillTabShortage, shortage["view"])
	assert.Equal(t, 2, shortage["total"])

	surplus, err := provider.Fetch(ctx, providerContext(WidgetSkillGap, map[string]string{FilterSkillView: SkillTabSurplus}))
	require.NoError(t, err)
	assert.Equal(t, 1, surplus["total"])

	detail, err := provider.Detail(ctx, providerContext(WidgetSkillGap, nil), "Go")
	require.NoError(t, err)
	assert.Len(t, detail["requests"], 2)
	react, err := provider.Detail(ctx, providerContext(WidgetSkillGap, nil), "React")
	require.NoError(t, err)
	assert.Len(t, react["requests"], 1, "cancelled requests are not open demand")
}

func TestUtilizationProviderRegions(t *testing.T) {
	provider := NewUtilizationProvider(fixtureRepository(), nil)
	ctx := context.Background()

	emea, err := provider.Fetch(ctx, providerContext(WidgetUtilization, map[string]string{FilterRegion: "emea"}))
	require.NoError(t, err)
	assert.Len(t, emea["rows"], 1)
	assert.InDelta(t, 60.0, emea["totals"].(UtilizationRow).Utilization, 0.001)

	detail, err := provider.Detail(ctx, providerContext(WidgetUtilization, nil), "apac")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, detail["allocation_pct"].(float64), 0.001)
	assert.InDelta(t, 5.9, detail["unbilled_pct"].(float64), 0.001)
}

func TestBenchProviders(t *testing.T) {
	ctx := context.Background()
	aging := NewBenchAgingProvider(fixtureRepository(), nil)
	data, err := aging.Fetch(ctx, providerContext(WidgetBenchAging, map[string]string{FilterLocation: "bengaluru"}))
	require.NoError(t, err)
	assert.Equal(t, 2, data["total"])

	detail, err := aging.Detail(ctx, providerContext(WidgetBenchAging, nil), "E3")
	require.NoError(t, err)
	assert.Equal(t, Aging61To90, detail["bucket"])
	assert.Equal(t, "London", detail["location_label"])

	burn := NewBenchBurnProvider(fixtureRepository(), nil)
	data, err = burn.Fetch(ctx, providerContext(WidgetBenchBurn, nil))
	require.NoError(t, err)
	assert.Equal(t, "41500.00", data["total"])
	assert.Equal(t, 4, data["headcount"])

	detail, err = burn.Detail(ctx, providerContext(WidgetBenchBurn, nil), "E1")
	require.NoError(t, err)
	burns := detail["burn"].(map[string]decimal.Decimal)
	assert.True(t, burns[BurnToDate].Equal(decimal.NewFromInt(1000)))
	assert.True(t, burns[BurnQuarterly].Equal(decimal.NewFromInt(9000)))
}

func TestCollaborationProviderUsesTranscript(t *testing.T) {
	provider := CollaborationProvider{}
	ctx := context.Background()

	empty, err := provider.Fetch(ctx, providerContext(WidgetCollaboration, map[string]string{FilterConversation: "tag"}))
	require.NoError(t, err)
	assert.Equal(t, collab.ConversationTAG, empty["conversation"])
	assert.Equal(t, "Talent Acquisition", empty["counterpart"])
	assert.Equal(t, false, empty["awaiting"])

	meta := providerContext(WidgetCollaboration, nil)
	meta.Chat = &collab.Transcript{
		Conversation: collab.ConversationDelivery,
		Counterpart:  collab.ConversationDelivery.Counterpart(),
		Messages:     []collab.Message{{ID: "m1", Text: "hi"}},
		Pending:      1,
	}
	live, err := provider.Fetch(ctx, meta)
	require.NoError(t, err)
	assert.Equal(t, collab.ConversationDelivery, live["conversation"])
	assert.Len(t, live["messages"], 1)
	assert.Equal(t, true, live["awaiting"])
}

type failingRepository struct{ err error }

func (f failingRepository) FetchDataset(context.Context) (Dataset, error) { return Dataset{}, f.err }

func TestProvidersSurfaceRepositoryErrors(t *testing.T) {
	boom := errors.New("upstream down")
	for code, provider := range DefaultProviders(failingRepository{err: boom}, nil) {
		if code == WidgetCollaboration {
			continue
		}
		_, err := provider.Fetch(context.Background(), providerContext(code, nil))
		assert.ErrorIs(t, err, boom, code)
	}
	_, err := NewSLAOverviewProvider(nil, nil).Fetch(context.Background(), providerContext(WidgetSLAOverview, nil))
	assert.ErrorIs(t, err, errMissingRepository)
}

func TestProvidersAttachCharts(t *testing.T) {
	renderer := NewChartRenderer(WithChartCache(nil))
	providers := DefaultProviders(fixtureRepository(), renderer)
	for _, code := range []string{WidgetSLAOverview, WidgetRequestFunnel, WidgetSkillGap, WidgetUtilization, WidgetBenchAging, WidgetBenchBurn} {
		data, err := providers[code].Fetch(context.Background(), providerContext(code, nil))
		require.NoError(t, err, code)
		html, _ := data["chart_html"].(string)
		assert.Contains(t, html, "echarts", code)
		assert.NotContains(t, data, "chart_error", code)
	}
}

func TestDetailResolvesOutsideActiveSubset(t *testing.T) {
	provider := NewSLAOverviewProvider(fixtureRepository(), nil)
	ctx := context.Background()
	meta := providerContext(WidgetSLAOverview, map[string]string{FilterSLA: string(SLAAtRisk)})

	listed, err := provider.Fetch(ctx, meta)
	require.NoError(t, err)
	for _, row := range listed["rows"].([]RequestRow) {
		require.NotEqual(t, "REQ-3", row.ID)
	}

	detail, err := provider.Detail(ctx, meta, "REQ-3")
	require.NoError(t, err)
	assert.Equal(t, SLABreached, detail["request"].(RequestRow).SLA)
}
