package dashboard

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Derivations in this file are pure: inputs are never mutated and results
// are always freshly allocated.

// CategoryCount is the number of records in one category.
type CategoryCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SumCounts adds every count.
func SumCounts(counts []CategoryCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

func matchesOption(value, selected string) bool {
	return selected == "" || selected == FilterAll || value == selected
}

// RequestFilter narrows a request list. Empty or "all" fields do not restrict.
type RequestFilter struct {
	SLA    string
	Source string
	Status string
	Skill  string
	// Window keeps requests raised within the duration before AsOf; 0 keeps all.
	Window time.Duration
	AsOf   time.Time
}

// FilterRequests returns the requests matching f, in input order.
func FilterRequests(requests []ResourceRequest, f RequestFilter) []ResourceRequest {
	out := make([]ResourceRequest, 0, len(requests))
	for _, r := range requests {
		if !matchesOption(string(r.Source), f.Source) ||
			!matchesOption(string(r.Status), f.Status) ||
			!matchesOption(r.Skill, f.Skill) {
			continue
		}
		if !matchesOption(string(r.SLAState(f.AsOf)), f.SLA) {
			continue
		}
		if f.Window > 0 && r.RaisedAt.Before(f.AsOf.Add(-f.Window)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountRequestsBy counts requests per key. Keys appear in first-seen order.
func CountRequestsBy(requests []ResourceRequest, key func(ResourceRequest) string) []CategoryCount {
	index := map[string]int{}
	var out []CategoryCount
	for _, r := range requests {
		k := key(r)
		pos, ok := index[k]
		if !ok {
			pos = len(out)
			index[k] = pos
			out = append(out, CategoryCount{Key: k})
		}
		out[pos].Count++
	}
	return out
}

// SLABreakdown counts requests per SLA state, in SLAStates order.
func SLABreakdown(requests []ResourceRequest, asOf time.Time) []CategoryCount {
	index := make(map[SLAState]int, len(SLAStates))
	for _, r := range requests {
		index[r.SLAState(asOf)]++
	}
	out := make([]CategoryCount, len(SLAStates))
	for i, state := range SLAStates {
		out[i] = CategoryCount{Key: string(state), Count: index[state]}
	}
	return out
}

// StatusBreakdown counts requests per workflow status, in RequestStatuses order.
func StatusBreakdown(requests []ResourceRequest) []CategoryCount {
	index := make(map[RequestStatus]int, len(RequestStatuses))
	for _, r := range requests {
		index[r.Status]++
	}
	out := make([]CategoryCount, len(RequestStatuses))
	for i, status := range RequestStatuses {
		out[i] = CategoryCount{Key: string(status), Count: index[status]}
	}
	return out
}

// pipelineStages are the funnel stages a request advances through.
var pipelineStages = []RequestStatus{
	StatusOpen,
	StatusSourcing,
	StatusShortlisted,
	StatusInterviewing,
	StatusAllocated,
}

// FunnelStage is one status bucket of the request funnel. Reached counts the
// requests at this pipeline stage or beyond; exits (on hold, cancelled) only
// reach themselves.
type FunnelStage struct {
	Status   RequestStatus `json:"status"`
	Count    int           `json:"count"`
	Reached  int           `json:"reached"`
	Pipeline bool          `json:"pipeline"`
}

// FunnelReport is the derived funnel for a request subset.
type FunnelReport struct {
	Total          int           `json:"total"`
	Stages         []FunnelStage `json:"stages"`
	ConversionRate float64       `json:"conversion_rate"`
}

// BuildFunnel places every request in exactly one stage.
func BuildFunnel(requests []ResourceRequest) FunnelReport {
	counts := StatusBreakdown(requests)
	rank := make(map[RequestStatus]int, len(pipelineStages))
	for i, s := range pipelineStages {
		rank[s] = i
	}
	stages := make([]FunnelStage, len(counts))
	allocated := 0
	for i, c := range counts {
		status := RequestStatus(c.Key)
		stage := FunnelStage{Status: status, Count: c.Count, Reached: c.Count}
		if r, ok := rank[status]; ok {
			stage.Pipeline = true
			stage.Reached = 0
			for _, other := range counts {
				if or, ok := rank[RequestStatus(other.Key)]; ok && or >= r {
					stage.Reached += other.Count
				}
			}
		}
		if status == StatusAllocated {
			allocated = c.Count
		}
		stages[i] = stage
	}
	report := FunnelReport{Total: len(requests), Stages: stages}
	if len(requests) > 0 {
		report.ConversionRate = round1(float64(allocated) / float64(len(requests)) * 100)
	}
	return report
}

// ParseWindow converts "7d", "30d", ... into a duration. "all" and invalid
// values yield 0 (unbounded).
func ParseWindow(value string) time.Duration {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == FilterAll || !strings.HasSuffix(value, "d") {
		return 0
	}
	days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
	if err != nil || days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

// Skill gap tabs.
const (
	SkillTabShortage = "shortage"
	SkillTabSurplus  = "surplus"
	SkillTabBalanced = "balanced"
)

// SkillGapRow is one row of the skill-gap table.
type SkillGapRow struct {
	Name     string  `json:"name"`
	Demand   int     `json:"demand"`
	Supply   int     `json:"supply"`
	Gap      int     `json:"gap"`
	Coverage float64 `json:"coverage"`
}

// SkillGapRows filters skills by tab and sorts by gap (largest shortage first).
func SkillGapRows(skills []SkillDemand, tab string) []SkillGapRow {
	rows := make([]SkillGapRow, 0, len(skills))
	for _, s := range skills {
		gap := s.Gap()
		switch tab {
		case SkillTabShortage:
			if gap <= 0 {
				continue
			}
		case SkillTabSurplus:
			if gap >= 0 {
				continue
			}
		case SkillTabBalanced:
			if gap != 0 {
				continue
			}
		}
		row := SkillGapRow{Name: s.Name, Demand: s.Demand, Supply: s.Supply, Gap: gap}
		if s.Demand > 0 {
			row.Coverage = round1(float64(s.Supply) / float64(s.Demand) * 100)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Gap != rows[j].Gap {
			return rows[i].Gap > rows[j].Gap
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// UtilizationRow is one region line of the utilization report.
type UtilizationRow struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Planned     float64 `json:"planned"`
	Allocated   float64 `json:"allocated"`
	Billed      float64 `json:"billed"`
	Logged      float64 `json:"logged"`
	Utilization float64 `json:"utilization"`
}

func utilizationRow(r RegionHours) UtilizationRow {
	return UtilizationRow{
		Code:        r.Code,
		Name:        r.Name,
		Planned:     r.Planned,
		Allocated:   r.Allocated,
		Billed:      r.Billed,
		Logged:      r.Logged,
		Utilization: round1(r.Utilization() * 100),
	}
}

// UtilizationReport returns the rows for region ("all" for every region) and
// a totals row whose utilization is computed from summed hours.
func UtilizationReport(regions []RegionHours, region string) ([]UtilizationRow, UtilizationRow) {
	rows := make([]UtilizationRow, 0, len(regions))
	var sum RegionHours
	for _, r := range regions {
		if !matchesOption(r.Code, region) {
			continue
		}
		rows = append(rows, utilizationRow(r))
		sum.Planned += r.Planned
		sum.Allocated += r.Allocated
		sum.Billed += r.Billed
		sum.Logged += r.Logged
	}
	sum.Code = "total"
	sum.Name = "Total"
	return rows, utilizationRow(sum)
}

// Bench aging buckets.
const (
	Aging0To30  = "0_30"
	Aging31To60 = "31_60"
	Aging61To90 = "61_90"
	AgingOver90 = "90_plus"
)

// AgingBuckets lists bucket keys in ascending age.
var AgingBuckets = []string{Aging0To30, Aging31To60, Aging61To90, AgingOver90}

// AgingBucketFor maps days on bench to a bucket key.
func AgingBucketFor(days int) string {
	switch {
	case days <= 30:
		return Aging0To30
	case days <= 60:
		return Aging31To60
	case days <= 90:
		return Aging61To90
	default:
		return AgingOver90
	}
}

// BenchAgingRow is one employee line of the aging report.
type BenchAgingRow struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Skill      string    `json:"skill"`
	BenchStart time.Time `json:"bench_start"`
	Days       int       `json:"days"`
	Bucket     string    `json:"bucket"`
}

// BenchAgingReport holds the bucketed view for one location.
type BenchAgingReport struct {
	Rows    []BenchAgingRow `json:"rows"`
	Buckets []CategoryCount `json:"buckets"`
	// Total is the location-filtered headcount the buckets partition.
	Total int `json:"total"`
}

// BenchAging buckets employees at location and returns the rows in bucket.
func BenchAging(employees []BenchEmployee, asOf time.Time, bucket, location string) BenchAgingReport {
	counts := make(map[string]int, len(AgingBuckets))
	report := BenchAgingReport{}
	for _, e := range employees {
		if !matchesOption(e.Location, location) {
			continue
		}
		days := e.DaysOnBench(asOf)
		b := AgingBucketFor(days)
		counts[b]++
		report.Total++
		if !matchesOption(b, bucket) {
			continue
		}
		report.Rows = append(report.Rows, BenchAgingRow{
			ID:         e.ID,
			Name:       e.Name,
			Location:   e.Location,
			Skill:      e.PrimarySkill,
			BenchStart: e.BenchStart,
			Days:       days,
			Bucket:     b,
		})
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		if report.Rows[i].Days != report.Rows[j].Days {
			return report.Rows[i].Days > report.Rows[j].Days
		}
		return report.Rows[i].ID < report.Rows[j].ID
	})
	report.Buckets = make([]CategoryCount, len(AgingBuckets))
	for i, b := range AgingBuckets {
		report.Buckets[i] = CategoryCount{Key: b, Count: counts[b]}
	}
	return report
}

// Bench burn periods.
const (
	BurnToDate    = "to_date"
	BurnMonthly   = "monthly"
	BurnQuarterly = "quarterly"
)

// BurnRow is one employee's bench cost for the period.
type BurnRow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Days      int             `json:"days"`
	DailyCost decimal.Decimal `json:"daily_cost"`
	Burn      decimal.Decimal `json:"burn"`
}

// LocationBurn aggregates burn per location.
type LocationBurn struct {
	Location  string          `json:"location"`
	Headcount int             `json:"headcount"`
	Burn      decimal.Decimal `json:"burn"`
}

// BurnReport is the bench cost view for one period/location.
type BurnReport struct {
	Period     string          `json:"period"`
	Rows       []BurnRow       `json:"rows"`
	ByLocation []LocationBurn  `json:"by_location"`
	Total      decimal.Decimal `json:"total"`
}

func burnDays(period string, e BenchEmployee, asOf time.Time) int {
	switch period {
	case BurnMonthly:
		return 30
	case BurnQuarterly:
		return 90
	default:
		return e.DaysOnBench(asOf)
	}
}

// BenchBurn computes daily cost times days for each employee at location.
// to_date uses actual days on bench; monthly/quarterly project a run rate.
func BenchBurn(employees []BenchEmployee, asOf time.Time, period, location string) BurnReport {
	if period == "" {
		period = BurnToDate
	}
	report := BurnReport{Period: period, Total: decimal.Zero}
	byLocation := map[string]*LocationBurn{}
	for _, e := range employees {
		if !matchesOption(e.Location, location) {
			continue
		}
		days := burnDays(period, e, asOf)
		burn := e.DailyCost.Mul(decimal.NewFromInt(int64(days)))
		report.Rows = append(report.Rows, BurnRow{
			ID:        e.ID,
			Name:      e.Name,
			Location:  e.Location,
			Days:      days,
			DailyCost: e.DailyCost,
			Burn:      burn,
		})
		report.Total = report.Total.Add(burn)
		agg, ok := byLocation[e.Location]
		if !ok {
			agg = &LocationBurn{Location: e.Location, Burn: decimal.Zero}
			byLocation[e.Location] = agg
		}
		agg.Headcount++
		agg.Burn = agg.Burn.Add(burn)
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		if c := report.Rows[i].Burn.Cmp(report.Rows[j].Burn); c != 0 {
			return c > 0
		}
		return report.Rows[i].ID < report.Rows[j].ID
	})
	for _, agg := range byLocation {
		report.ByLocation = append(report.ByLocation, *agg)
	}
	sort.Slice(report.ByLocation, func(i, j int) bool {
		if c := report.ByLocation[i].Burn.Cmp(report.ByLocation[j].Burn); c != 0 {
			return c > 0
		}
		return report.ByLocation[i].Location < report.ByLocation[j].Location
	})
	return report
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
