package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errMissingRepository = errors.New("dashboard: resourcing repository not configured")

// resourcingProvider carries what every dataset-backed provider needs.
type resourcingProvider struct {
	repo   ResourcingRepository
	charts *ChartRenderer
}

func (p resourcingProvider) dataset(ctx context.Context) (Dataset, error) {
	if p.repo == nil {
		return Dataset{}, errMissingRepository
	}
	ds, err := p.repo.FetchDataset(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("dashboard: fetch dataset: %w", err)
	}
	return ds, nil
}

// title resolves the widget title: translation, then configured title, then fallback.
func (p resourcingProvider) title(ctx context.Context, meta WidgetContext, fallback string) string {
	fallback = stringValue(meta.Instance.Configuration["title"], fallback)
	key := fmt.Sprintf("dashboard.widget.%s.title", strings.TrimPrefix(meta.Instance.DefinitionID, "rmg.widget."))
	return translateOrFallback(ctx, meta.Translator, key, meta.Viewer.Locale, fallback, nil)
}

// attachChart merges chart markup into data. Rendering failures are reported
// under chart_error so the tabular view still renders.
func (p resourcingProvider) attachChart(ctx context.Context, meta WidgetContext, data WidgetData, spec ChartSpec) {
	if p.charts == nil {
		return
	}
	chart, err := p.charts.Chart(ctx, meta, spec)
	if err != nil {
		data["chart_error"] = err.Error()
		return
	}
	for k, v := range chart {
		data[k] = v
	}
}

func recordNotFound(kind, key string) error {
	return fmt.Errorf("%w: %s %q", ErrRecordNotFound, kind, key)
}

// RequestRow is a request annotated with its derived SLA state.
type RequestRow struct {
	ResourceRequest
	SLA       SLAState `json:"sla"`
	DaysToDue int      `json:"days_to_due"`
}

func requestRows(requests []ResourceRequest, asOf time.Time) []RequestRow {
	rows := make([]RequestRow, len(requests))
	for i, r := range requests {
		rows[i] = RequestRow{
			ResourceRequest: r,
			SLA:             r.SLAState(asOf),
			DaysToDue:       int(math.Floor(r.DueDate.Sub(asOf).Hours() / 24)),
		}
	}
	return rows
}

func countsToPoints(counts []CategoryCount, labels []FilterOption) []ChartPoint {
	points := make([]ChartPoint, len(counts))
	for i, c := range counts {
		points[i] = ChartPoint{Label: OptionLabel(labels, c.Key), Value: float64(c.Count)}
	}
	return points
}

// SLAOverviewProvider lists requests by SLA state. Its source filter scopes
// the counts; the SLA tab picks the listed subset.
type SLAOverviewProvider struct {
	resourcingProvider
	newID func() string
}

// NewSLAOverviewProvider builds the provider. charts may be nil.
func NewSLAOverviewProvider(repo ResourcingRepository, charts *ChartRenderer) *SLAOverviewProvider {
	return &SLAOverviewProvider{
		resourcingProvider: resourcingProvider{repo: repo, charts: charts},
		newID:              uuid.NewString,
	}
}

// Fetch implements Provider.
func (p *SLAOverviewProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	source := meta.Filter(FilterSource, FilterAll)
	sla := meta.Filter(FilterSLA, FilterAll)
	scoped := FilterRequests(ds.Requests, RequestFilter{Source: source, AsOf: ds.AsOf})
	listed := FilterRequests(scoped, RequestFilter{SLA: sla, AsOf: ds.AsOf})
	counts := SLABreakdown(scoped, ds.AsOf)

	title := p.title(ctx, meta, "Request SLA Overview")
	data := WidgetData{
		"title":    title,
		"as_of":    ds.AsOf,
		"total":    len(scoped),
		"counts":   counts,
		"rows":     requestRows(listed, ds.AsOf),
		"selected": sla,
	}
	p.attachChart(ctx, meta, data, ChartSpec{
		Type:   ChartPie,
		Title:  title,
		Series: []ChartSeries{{Name: "SLA", Points: countsToPoints(counts, slaOptions)}},
	})
	return data, nil
}

// Detail resolves a request by ID.
func (p *SLAOverviewProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	req, ok := ds.Request(key)
	if !ok {
		return nil, recordNotFound("request", key)
	}
	row := requestRows([]ResourceRequest{req}, ds.AsOf)[0]
	return WidgetData{
		"kind":         "request",
		"request":      row,
		"status_label": OptionLabel(statusOptions, string(req.Status)),
		"sla_label":    OptionLabel(slaOptions, string(row.SLA)),
		"escalatable":  row.SLA != SLAMet && row.SLA != SLAClosed,
	}, nil
}

// Escalate acknowledges an escalation of one request to RMG or TAG.
func (p *SLAOverviewProvider) Escalate(ctx context.Context, meta WidgetContext, req EscalationRequest) (Acknowledgment, error) {
	req, err := req.normalize()
	if err != nil {
		return Acknowledgment{}, err
	}
	ds, err := p.dataset(ctx)
	if err != nil {
		return Acknowledgment{}, err
	}
	record, ok := ds.Request(req.RequestID)
	if !ok {
		return Acknowledgment{}, recordNotFound("request", req.RequestID)
	}
	team := escalationTeams[req.Target]
	message := fmt.Sprintf("%s (%s, %s) escalated to %s", record.ID, record.Skill, record.Project, team)
	if req.Note != "" {
		message += ": " + req.Note
	}
	return Acknowledgment{
		ID:        p.newID(),
		RequestID: record.ID,
		Target:    req.Target,
		Team:      team,
		Message:   message,
	}, nil
}

// RequestFunnelProvider shows requests per workflow stage.
type RequestFunnelProvider struct {
	resourcingProvider
}

// NewRequestFunnelProvider builds the provider. charts may be nil.
func NewRequestFunnelProvider(repo ResourcingRepository, charts *ChartRenderer) *RequestFunnelProvider {
	return &RequestFunnelProvider{resourcingProvider{repo: repo, charts: charts}}
}

func (p *RequestFunnelProvider) scoped(ds Dataset, meta WidgetContext) []ResourceRequest {
	return FilterRequests(ds.Requests, RequestFilter{
		Source: meta.Filter(FilterSource, FilterAll),
		Window: ParseWindow(meta.Filter(FilterWindow, FilterAll)),
		AsOf:   ds.AsOf,
	})
}

// Fetch implements Provider.
func (p *RequestFunnelProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	report := BuildFunnel(p.scoped(ds, meta))
	title := p.title(ctx, meta, "Request Funnel")
	data := WidgetData{
		"title":           title,
		"as_of":           ds.AsOf,
		"total":           report.Total,
		"stages":          report.Stages,
		"conversion_rate": report.ConversionRate,
	}
	points := make([]ChartPoint, 0, len(report.Stages))
	for _, stage := range report.Stages {
		if stage.Pipeline {
			points = append(points, ChartPoint{Label: OptionLabel(statusOptions, string(stage.Status)), Value: float64(stage.Reached)})
		}
	}
	p.attachChart(ctx, meta, data, ChartSpec{
		Type:     ChartFunnel,
		Title:    title,
		Subtitle: fmt.Sprintf("%.1f%% allocated", report.ConversionRate),
		Series:   []ChartSeries{{Name: "Requests", Points: points}},
	})
	return data, nil
}

// Detail lists the requests in one stage; key is a status.
func (p *RequestFunnelProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	var status RequestStatus
	for _, s := range RequestStatuses {
		if string(s) == key {
			status = s
		}
	}
	if status == "" {
		return nil, recordNotFound("stage", key)
	}
	inStage := FilterRequests(p.scoped(ds, meta), RequestFilter{Status: string(status), AsOf: ds.AsOf})
	return WidgetData{
		"kind":     "stage",
		"status":   status,
		"label":    OptionLabel(statusOptions, string(status)),
		"requests": requestRows(inStage, ds.AsOf),
	}, nil
}

// SkillGapProvider compares demand and supply per skill.
type SkillGapProvider struct {
	resourcingProvider
}

// NewSkillGapProvider builds the provider. charts may be nil.
func NewSkillGapProvider(repo ResourcingRepository, charts *ChartRenderer) *SkillGapProvider {
	return &SkillGapProvider{resourcingProvider{repo: repo, charts: charts}}
}

// Fetch implements Provider.
func (p *SkillGapProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	view := meta.Filter(FilterSkillView, FilterAll)
	rows := SkillGapRows(ds.Skills, view)
	title := p.title(ctx, meta, "Skill Gap")
	data := WidgetData{
		"title": title,
		"view":  view,
		"rows":  rows,
		"total": len(rows),
	}
	if len(rows) > 0 {
		labels := make([]string, len(rows))
		demand := make([]ChartPoint, len(rows))
		supply := make([]ChartPoint, len(rows))
		for i, row := range rows {
			labels[i] = row.Name
			demand[i] = ChartPoint{Label: row.Name, Value: float64(row.Demand)}
			supply[i] = ChartPoint{Label: row.Name, Value: float64(row.Supply)}
		}
		p.attachChart(ctx, meta, data, ChartSpec{
			Type:   ChartBar,
			Title:  title,
			XAxis:  labels,
			Series: []ChartSeries{{Name: "Demand", Points: demand}, {Name: "Supply", Points: supply}},
		})
	}
	return data, nil
}

// Detail resolves a skill by name with its open requests.
func (p *SkillGapProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	skill, ok := ds.Skill(key)
	if !ok {
		return nil, recordNotFound("skill", key)
	}
	var open []ResourceRequest
	for _, r := range FilterRequests(ds.Requests, RequestFilter{Skill: skill.Name, AsOf: ds.AsOf}) {
		if r.Status != StatusAllocated && r.Status != StatusCancelled {
			open = append(open, r)
		}
	}
	return WidgetData{
		"kind":     "skill",
		"skill":    SkillGapRows([]SkillDemand{skill}, FilterAll)[0],
		"requests": requestRows(open, ds.AsOf),
	}, nil
}

// UtilizationProvider reports hours per delivery region.
type UtilizationProvider struct {
	resourcingProvider
}

// NewUtilizationProvider builds the provider. charts may be nil.
func NewUtilizationProvider(repo ResourcingRepository, charts *ChartRenderer) *UtilizationProvider {
	return &UtilizationProvider{resourcingProvider{repo: repo, charts: charts}}
}

// Fetch implements Provider. A single region renders as a gauge, all
// regions as a bar chart.
func (p *UtilizationProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	region := meta.Filter(FilterRegion, FilterAll)
	rows, total := UtilizationReport(ds.Regions, region)
	title := p.title(ctx, meta, "Utilization")
	data := WidgetData{
		"title":  title,
		"region": region,
		"rows":   rows,
		"totals": total,
	}
	if region == FilterAll {
		labels := make([]string, len(rows))
		points := make([]ChartPoint, len(rows))
		for i, row := range rows {
			labels[i] = row.Name
			points[i] = ChartPoint{Label: row.Name, Value: row.Utilization}
		}
		p.attachChart(ctx, meta, data, ChartSpec{
			Type:   ChartBar,
			Title:  title,
			XAxis:  labels,
			Series: []ChartSeries{{Name: "Utilization %", Points: points}},
		})
	} else if len(rows) == 1 {
		p.attachChart(ctx, meta, data, ChartSpec{
			Type:   ChartGauge,
			Title:  title,
			Series: []ChartSeries{{Name: rows[0].Name, Points: []ChartPoint{{Label: "Utilization %", Value: rows[0].Utilization}}}},
		})
	}
	return data, nil
}

// Detail resolves a region by code.
func (p *UtilizationProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	region, ok := ds.Region(key)
	if !ok {
		return nil, recordNotFound("region", key)
	}
	allocation := 0.0
	if region.Planned > 0 {
		allocation = round1(region.Allocated / region.Planned * 100)
	}
	unbilled := 0.0
	if region.Logged > 0 {
		unbilled = round1((region.Logged - region.Billed) / region.Logged * 100)
	}
	return WidgetData{
		"kind":           "region",
		"region":         utilizationRow(region),
		"allocation_pct": allocation,
		"unbilled_pct":   unbilled,
	}, nil
}
