package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
)

// BenchAgingProvider buckets bench staff by days without allocation.
type BenchAgingProvider struct {
	resourcingProvider
}

// NewBenchAgingProvider builds the provider. charts may be nil.
func NewBenchAgingProvider(repo ResourcingRepository, charts *ChartRenderer) *BenchAgingProvider {
	return &BenchAgingProvider{resourcingProvider{repo: repo, charts: charts}}
}

// Fetch implements Provider.
func (p *BenchAgingProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	bucket := meta.Filter(FilterBucket, FilterAll)
	location := meta.Filter(FilterLocation, FilterAll)
	report := BenchAging(ds.Bench, ds.AsOf, bucket, location)
	title := p.title(ctx, meta, "Bench Aging")
	data := WidgetData{
		"title":    title,
		"as_of":    ds.AsOf,
		"bucket":   bucket,
		"location": location,
		"total":    report.Total,
		"buckets":  report.Buckets,
		"rows":     report.Rows,
	}
	if report.Total > 0 {
		p.attachChart(ctx, meta, data, ChartSpec{
			Type:   ChartPie,
			Title:  title,
			Series: []ChartSeries{{Name: "Bench", Points: countsToPoints(report.Buckets, bucketOptions)}},
		})
	}
	return data, nil
}

// Detail resolves a bench employee by ID.
func (p *BenchAgingProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	emp, ok := ds.Employee(key)
	if !ok {
		return nil, recordNotFound("employee", key)
	}
	days := emp.DaysOnBench(ds.AsOf)
	bucket := AgingBucketFor(days)
	return WidgetData{
		"kind":           "employee",
		"employee":       emp,
		"days":           days,
		"bucket":         bucket,
		"bucket_label":   OptionLabel(bucketOptions, bucket),
		"location_label": OptionLabel(DemoLocations, emp.Location),
	}, nil
}

// BenchBurnProvider reports the cost of unallocated staff.
type BenchBurnProvider struct {
	resourcingProvider
}

// NewBenchBurnProvider builds the provider. charts may be nil.
func NewBenchBurnProvider(repo ResourcingRepository, charts *ChartRenderer) *BenchBurnProvider {
	return &BenchBurnProvider{resourcingProvider{repo: repo, charts: charts}}
}

// Fetch implements Provider.
func (p *BenchBurnProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	period := meta.Filter(FilterPeriod, BurnToDate)
	location := meta.Filter(FilterLocation, FilterAll)
	report := BenchBurn(ds.Bench, ds.AsOf, period, location)
	title := p.title(ctx, meta, "Bench Burn")
	data := WidgetData{
		"title":       title,
		"as_of":       ds.AsOf,
		"period":      period,
		"location":    location,
		"total":       report.Total.StringFixed(2),
		"rows":        report.Rows,
		"by_location": report.ByLocation,
		"headcount":   len(report.Rows),
	}
	if len(report.ByLocation) > 0 {
		labels := make([]string, len(report.ByLocation))
		points := make([]ChartPoint, len(report.ByLocation))
		for i, loc := range report.ByLocation {
			labels[i] = OptionLabel(DemoLocations, loc.Location)
			value, _ := loc.Burn.Float64()
			points[i] = ChartPoint{Label: labels[i], Value: value}
		}
		p.attachChart(ctx, meta, data, ChartSpec{
			Type:     ChartBar,
			Title:    title,
			Subtitle: OptionLabel(periodOptions, period),
			XAxis:    labels,
			Series:   []ChartSeries{{Name: "Burn", Points: points}},
		})
	}
	return data, nil
}

// Detail resolves a bench employee with burn for every period.
func (p *BenchBurnProvider) Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error) {
	ds, err := p.dataset(ctx)
	if err != nil {
		return nil, err
	}
	emp, ok := ds.Employee(key)
	if !ok {
		return nil, recordNotFound("employee", key)
	}
	burns := make(map[string]decimal.Decimal, len(periodOptions))
	for _, opt := range periodOptions {
		burns[opt.Value] = BenchBurn([]BenchEmployee{emp}, ds.AsOf, opt.Value, FilterAll).Total
	}
	return WidgetData{
		"kind":     "employee",
		"employee": emp,
		"days":     emp.DaysOnBench(ds.AsOf),
		"burn":     burns,
	}, nil
}
