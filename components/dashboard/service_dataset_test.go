package dashboard

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

func demoRepository() *DemoResourcingRepository {
	return NewDemoResourcingRepository(DefaultDemoSeed, func() time.Time { return fixtureAsOf })
}

func selects(value, selected string) bool {
	return selected == FilterAll || value == selected
}

func gapMatches(gap int, tab string) bool {
	switch tab {
	case SkillTabShortage:
		return gap > 0
	case SkillTabSurplus:
		return gap < 0
	case SkillTabBalanced:
		return gap == 0
	}
	return true
}

type subsetCheck func(t *testing.T, ds Dataset, active map[string]string, data WidgetData)

// subsetChecks compare a rendered widget with the records the active filters
// select from the dataset.
var subsetChecks = map[string]subsetCheck{
	WidgetSLAOverview: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		want := 0
		for _, r := range ds.Requests {
			if selects(string(r.Source), active[FilterSource]) && selects(string(r.SLAState(ds.AsOf)), active[FilterSLA]) {
				want++
			}
		}
		rows := data["rows"].([]RequestRow)
		assert.Len(t, rows, want)
		for _, row := range rows {
			assert.True(t, selects(string(row.Source), active[FilterSource]), "request %s has source %s", row.ID, row.Source)
			assert.True(t, selects(string(row.SLA), active[FilterSLA]), "request %s has sla %s", row.ID, row.SLA)
		}
	},
	WidgetRequestFunnel: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		window := ParseWindow(active[FilterWindow])
		want := 0
		for _, r := range ds.Requests {
			if !selects(string(r.Source), active[FilterSource]) {
				continue
			}
			if window > 0 && ds.AsOf.Sub(r.RaisedAt) > window {
				continue
			}
			want++
		}
		assert.Equal(t, want, data["total"])
		sum := 0
		for _, stage := range data["stages"].([]FunnelStage) {
			sum += stage.Count
		}
		assert.Equal(t, want, sum)
	},
	WidgetSkillGap: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		tab := active[FilterSkillView]
		want := 0
		for _, s := range ds.Skills {
			if gapMatches(s.Gap(), tab) {
				want++
			}
		}
		rows := data["rows"].([]SkillGapRow)
		assert.Len(t, rows, want)
		for _, row := range rows {
			assert.True(t, gapMatches(row.Gap, tab), "skill %s has gap %d", row.Name, row.Gap)
		}
	},
	WidgetUtilization: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		want := 0
		for _, r := range ds.Regions {
			if selects(r.Code, active[FilterRegion]) {
				want++
			}
		}
		rows := data["rows"].([]UtilizationRow)
		assert.Len(t, rows, want)
		for _, row := range rows {
			assert.True(t, selects(row.Code, active[FilterRegion]), "region %s", row.Code)
		}
	},
	WidgetCollaboration: func(t *testing.T, _ Dataset, active map[string]string, data WidgetData) {
		conv, ok := data["conversation"].(collab.Conversation)
		require.True(t, ok)
		assert.Equal(t, active[FilterConversation], string(conv))
	},
	WidgetBenchAging: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		atLocation, want := 0, 0
		for _, e := range ds.Bench {
			if !selects(e.Location, active[FilterLocation]) {
				continue
			}
			atLocation++
			if selects(AgingBucketFor(e.DaysOnBench(ds.AsOf)), active[FilterBucket]) {
				want++
			}
		}
		assert.Equal(t, atLocation, data["total"])
		rows := data["rows"].([]BenchAgingRow)
		assert.Len(t, rows, want)
		for _, row := range rows {
			assert.True(t, selects(row.Bucket, active[FilterBucket]), "employee %s in bucket %s", row.ID, row.Bucket)
			assert.True(t, selects(row.Location, active[FilterLocation]), "employee %s at %s", row.ID, row.Location)
		}
	},
	WidgetBenchBurn: func(t *testing.T, ds Dataset, active map[string]string, data WidgetData) {
		want := 0
		for _, e := range ds.Bench {
			if selects(e.Location, active[FilterLocation]) {
				want++
			}
		}
		rows := data["rows"].([]BurnRow)
		assert.Len(t, rows, want)
		for _, row := range rows {
			assert.True(t, selects(row.Location, active[FilterLocation]), "employee %s at %s", row.ID, row.Location)
			emp, ok := ds.Employee(row.ID)
			require.True(t, ok)
			switch active[FilterPeriod] {
			case BurnMonthly:
				assert.Equal(t, 30, row.Days)
			case BurnQuarterly:
				assert.Equal(t, 90, row.Days)
			default:
				assert.Equal(t, emp.DaysOnBench(ds.AsOf), row.Days)
			}
		}
	},
}

func TestEveryFilterOptionSelectsMatchingSubset(t *testing.T) {
	repo := demoRepository()
	h := newServiceHarnessWith(t, repo)
	ctx := context.Background()
	ds, err := repo.FetchDataset(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ds.Requests)
	require.NotEmpty(t, ds.Bench)

	for _, def := range DefaultWidgetDefinitions() {
		check, ok := subsetChecks[def.Code]
		if !ok {
			t.Fatalf("no subset check for %s", def.Code)
		}
		id := h.widgetID(t, def.Code)
		for _, spec := range def.Filters {
			for _, opt := range spec.Options {
				t.Run(def.Code+"/"+spec.Key+"="+opt.Value, func(t *testing.T) {
					viewer := ViewerContext{UserID: "rm-" + spec.Key + "-" + opt.Value, Locale: "en"}
					require.NoError(t, h.service.SelectFilter(ctx, viewer, id, spec.Key, opt.Value))

					data, view := h.render(t, viewer, def.Code)
					active := make(map[string]string, len(view.Filters))
					for _, f := range view.Filters {
						active[f.Key] = f.Selected
					}
					require.Equal(t, opt.Value, active[spec.Key])
					check(t, ds, active, data)
				})
			}
		}
	}
}

func TestViewInteractionsLeaveDatasetUnchanged(t *testing.T) {
	repo := demoRepository()
	h := newServiceHarnessWith(t, repo)
	ctx := context.Background()

	before, err := repo.FetchDataset(ctx)
	require.NoError(t, err)

	sla := h.widgetID(t, WidgetSLAOverview)
	data, _ := h.render(t, rm, WidgetSLAOverview)
	rows := data["rows"].([]RequestRow)
	require.NotEmpty(t, rows)

	bench := h.widgetID(t, WidgetBenchBurn)
	burn, _ := h.render(t, rm, WidgetBenchBurn)
	burnRows := burn["rows"].([]BurnRow)
	require.NotEmpty(t, burnRows)

	skills := h.widgetID(t, WidgetSkillGap)
	funnel := h.widgetID(t, WidgetRequestFunnel)

	require.NoError(t, h.service.SelectFilter(ctx, rm, sla, FilterSource, string(SourceProject)))
	_, err = h.service.OpenDetail(ctx, rm, sla, rows[0].ID)
	require.NoError(t, err)
	require.NoError(t, h.service.CloseDetail(ctx, rm, sla))
	require.NoError(t, h.service.SelectFilter(ctx, rm, sla, FilterSLA, string(SLABreached)))

	require.NoError(t, h.service.SelectFilter(ctx, rm, bench, FilterPeriod, BurnQuarterly))
	_, err = h.service.OpenDetail(ctx, rm, bench, burnRows[0].ID)
	require.NoError(t, err)
	require.NoError(t, h.service.CloseDetail(ctx, rm, bench))

	require.NoError(t, h.service.SelectFilter(ctx, rm, skills, FilterSkillView, FilterAll))
	_, err = h.service.OpenDetail(ctx, rm, skills, before.Skills[0].Name)
	require.NoError(t, err)
	require.NoError(t, h.service.CloseDetail(ctx, rm, skills))

	_, err = h.service.OpenDetail(ctx, rm, funnel, string(StatusOpen))
	require.NoError(t, err)
	require.NoError(t, h.service.CloseDetail(ctx, rm, funnel))

	_, err = h.service.ConfigureLayout(ctx, rm)
	require.NoError(t, err)
	require.NoError(t, h.service.ResetViewer(ctx, rm))

	after, err := repo.FetchDataset(ctx)
	require.NoError(t, err)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("dataset changed after view interactions")
	}
	if !reflect.DeepEqual(GenerateDataset(DefaultDemoSeed, fixtureAsOf), after) {
		t.Fatalf("dataset diverged from its generated source")
	}
}
