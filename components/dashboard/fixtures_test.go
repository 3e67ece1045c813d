package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

var fixtureAsOf = time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return fixtureAsOf.Add(-time.Duration(n) * 24 * time.Hour) }

func daysAhead(n int) time.Time { return fixtureAsOf.Add(time.Duration(n) * 24 * time.Hour) }

// fixtureDataset is small enough to check every derived number by hand.
func fixtureDataset() Dataset {
	return Dataset{
		AsOf: fixtureAsOf,
		Requests: []ResourceRequest{
			{ID: "REQ-1", Project: "Atlas", Source: SourceProject, Skill: "Go", Status: StatusOpen, RaisedAt: daysAgo(5), DueDate: daysAhead(10)},
			{ID: "REQ-2", Project: "Atlas", Source: SourceProject, Skill: "Go", Status: StatusSourcing, RaisedAt: daysAgo(20), DueDate: daysAhead(1)},
			{ID: "REQ-3", Project: "Helios", Source: SourceOpportunity, Skill: "Java", Status: StatusInterviewing, RaisedAt: daysAgo(40), DueDate: daysAgo(2)},
			{ID: "REQ-4", Project: "Helios", Source: SourceInternal, Skill: "Java", Status: StatusAllocated, RaisedAt: daysAgo(60), DueDate: daysAgo(30)},
			{ID: "REQ-5", Project: "Orion", Source: SourceOpportunity, Skill: "React", Status: StatusCancelled, RaisedAt: daysAgo(3), DueDate: daysAhead(20)},
			{ID: "REQ-6", Project: "Orion", Source: SourceProject, Skill: "React", Status: StatusShortlisted, RaisedAt: daysAgo(100), DueDate: daysAgo(50)},
		},
		Skills: []SkillDemand{
			{Name: "Go", Demand: 5, Supply: 2},
			{Name: "Java", Demand: 3, Supply: 3},
			{Name: "React", Demand: 1, Supply: 4},
			{Name: "Rust", Demand: 2, Supply: 0},
		},
		Regions: []RegionHours{
			{Code: "apac", Name: "APAC", Planned: 1000, Allocated: 900, Billed: 800, Logged: 850},
			{Code: "emea", Name: "EMEA", Planned: 500, Allocated: 400, Billed: 300, Logged: 350},
		},
		Bench: []BenchEmployee{
			{ID: "E1", Name: "Priya Iyer", BenchStart: daysAgo(10), DailyCost: decimal.NewFromInt(100), Location: "bengaluru", PrimarySkill: "Go"},
			{ID: "E2", Name: "Rahul Nair", BenchStart: daysAgo(45), DailyCost: decimal.NewFromInt(80), Location: "pune", PrimarySkill: "Java"},
			{ID: "E3", Name: "Oliver Smith", BenchStart: daysAgo(75), DailyCost: decimal.NewFromInt(300), Location: "london", PrimarySkill: "React"},
			{ID: "E4", Name: "Meera Gupta", BenchStart: daysAgo(120), DailyCost: decimal.NewFromInt(120), Location: "bengaluru", PrimarySkill: "SAP"},
		},
	}
}

func fixtureRepository() StaticResourcingRepository {
	return StaticResourcingRepository{Dataset: fixtureDataset()}
}

func requestIDs(rows []ResourceRequest) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
