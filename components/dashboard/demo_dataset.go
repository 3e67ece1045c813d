package dashboard

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ResourcingRepository returns the dataset widgets derive their views from.
type ResourcingRepository interface {
	FetchDataset(ctx context.Context) (Dataset, error)
}

// DefaultDemoSeed seeds the bundled demo dataset.
const DefaultDemoSeed int64 = 20240611

// DemoLocations are the bench locations used by the demo dataset.
var DemoLocations = []FilterOption{
	{Value: "bengaluru", Label: "Bengaluru"},
	{Value: "pune", Label: "Pune"},
	{Value: "hyderabad", Label: "Hyderabad"},
	{Value: "london", Label: "London"},
	{Value: "new_york", Label: "New York"},
}

// DemoRegions are the delivery regions used by the demo dataset.
var DemoRegions = []FilterOption{
	{Value: "apac", Label: "APAC"},
	{Value: "emea", Label: "EMEA"},
	{Value: "amer", Label: "Americas"},
	{Value: "india", Label: "India Delivery"},
}

var demoSkills = []string{
	"Java", "Go", "React", "Angular", "Python", "Data Engineering",
	"DevOps", "QA Automation", "Salesforce", "SAP", "iOS", "Android",
}

var demoProjects = []string{
	"Atlas Migration", "Helios CRM", "Nimbus Data Lake", "Orion Mobile",
	"Pegasus Billing", "Vega Analytics", "Zephyr Portal", "Lyra Payments",
}

var demoPeople = []string{
	"Aarav", "Priya", "Rahul", "Sneha", "Vikram", "Ananya", "Karan", "Meera",
	"Oliver", "Amelia", "Jack", "Isla", "Noah", "Emma", "Liam", "Sophia",
}

var demoSurnames = []string{
	"Sharma", "Iyer", "Reddy", "Patel", "Nair", "Gupta", "Smith", "Jones",
	"Brown", "Taylor", "Wilson", "Davies",
}

// locationDailyCost is the base daily bench cost per location, in USD.
var locationDailyCost = map[string]int64{
	"bengaluru": 180,
	"pune":      165,
	"hyderabad": 170,
	"london":    520,
	"new_york":  610,
}

// GenerateDataset builds a deterministic dataset for seed relative to asOf.
func GenerateDataset(seed int64, asOf time.Time) Dataset {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	asOf = asOf.UTC()
	ds := Dataset{AsOf: asOf}

	for i := 0; i < 48; i++ {
		raised := asOf.Add(-time.Duration(rng.IntN(120*24)) * time.Hour)
		due := raised.Add(time.Duration(7+rng.IntN(35)) * 24 * time.Hour)
		start := due.Add(time.Duration(rng.IntN(14)) * 24 * time.Hour)
		ds.Requests = append(ds.Requests, ResourceRequest{
			ID:        fmt.Sprintf("RR-%04d", 1001+i),
			Project:   demoProjects[rng.IntN(len(demoProjects))],
			Source:    RequestSources[rng.IntN(len(RequestSources))],
			Skill:     demoSkills[rng.IntN(len(demoSkills))],
			StartDate: start,
			EndDate:   start.AddDate(0, 3+rng.IntN(9), 0),
			Requester: demoPeople[rng.IntN(len(demoPeople))] + " " + demoSurnames[rng.IntN(len(demoSurnames))],
			Status:    RequestStatuses[rng.IntN(len(RequestStatuses))],
			RaisedAt:  raised,
			DueDate:   due,
		})
	}

	for _, skill := range demoSkills {
		demand := 2 + rng.IntN(18)
		ds.Skills = append(ds.Skills, SkillDemand{
			Name:   skill,
			Demand: demand,
			Supply: max(0, demand+rng.IntN(11)-5),
		})
	}

	for _, region := range DemoRegions {
		planned := float64(8000 + rng.IntN(8000))
		allocated := planned * (0.7 + rng.Float64()*0.3)
		billed := allocated * (0.75 + rng.Float64()*0.25)
		ds.Regions = append(ds.Regions, RegionHours{
			Code:      region.Value,
			Name:      region.Label,
			Planned:   planned,
			Allocated: round1(allocated),
			Billed:    round1(billed),
			Logged:    round1(allocated * (0.9 + rng.Float64()*0.15)),
		})
	}

	for i := 0; i < 36; i++ {
		location := DemoLocations[rng.IntN(len(DemoLocations))].Value
		daily := decimal.NewFromInt(locationDailyCost[location] + int64(rng.IntN(60)))
		ds.Bench = append(ds.Bench, BenchEmployee{
			ID:           fmt.Sprintf("EMP-%05d", 30001+i),
			Name:         demoPeople[rng.IntN(len(demoPeople))] + " " + demoSurnames[rng.IntN(len(demoSurnames))],
			BenchStart:   asOf.Add(-time.Duration(rng.IntN(150)) * 24 * time.Hour),
			DailyCost:    daily,
			Compensation: daily.Mul(decimal.NewFromInt(260)),
			Location:     location,
			PrimarySkill: demoSkills[rng.IntN(len(demoSkills))],
		})
	}
	return ds
}

// DemoResourcingRepository serves a generated dataset that stays stable for
// the lifetime of the repository.
type DemoResourcingRepository struct {
	seed int64
	asOf func() time.Time

	once    sync.Once
	dataset Dataset
}

// NewDemoResourcingRepository builds a repository for seed. asOf defaults to
// the current UTC day when nil.
func NewDemoResourcingRepository(seed int64, asOf func() time.Time) *DemoResourcingRepository {
	if asOf == nil {
		asOf = func() time.Time { return time.Now().UTC().Truncate(24 * time.Hour) }
	}
	return &DemoResourcingRepository{seed: seed, asOf: asOf}
}

// FetchDataset returns a copy of the generated dataset.
func (r *DemoResourcingRepository) FetchDataset(ctx context.Context) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	r.once.Do(func() {
		r.dataset = GenerateDataset(r.seed, r.asOf())
	})
	return r.dataset.Clone(), nil
}

// StaticResourcingRepository serves a fixed dataset, mostly for tests.
type StaticResourcingRepository struct {
	Dataset Dataset
}

// FetchDataset returns a copy of the static dataset.
func (r StaticResourcingRepository) FetchDataset(context.Context) (Dataset, error) {
	return r.Dataset.Clone(), nil
}
