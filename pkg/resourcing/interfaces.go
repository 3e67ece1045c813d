package resourcing

import (
	"context"

	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// RequestClient fetches resource requests from the staffing system.
type RequestClient interface {
	FetchRequests(ctx context.Context) ([]dashboard.ResourceRequest, error)
}

// SkillClient fetches demand and supply per skill.
type SkillClient interface {
	FetchSkills(ctx context.Context) ([]dashboard.SkillDemand, error)
}

// UtilizationClient fetches planned, billed and logged hours per region.
type UtilizationClient interface {
	FetchRegions(ctx context.Context) ([]dashboard.RegionHours, error)
}

// BenchClient fetches employees without billable allocation.
type BenchClient interface {
	FetchBench(ctx context.Context) ([]dashboard.BenchEmployee, error)
}

// Client is a convenience union for services that implement every call.
type Client interface {
	RequestClient
	SkillClient
	UtilizationClient
	BenchClient
}
