package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the workflow status of a resource request.
type RequestStatus string

const (
	StatusOpen         RequestStatus = "open"
	StatusSourcing     RequestStatus = "sourcing"
	StatusShortlisted  RequestStatus = "shortlisted"
	StatusInterviewing RequestStatus = "interviewing"
	StatusAllocated    RequestStatus = "allocated"
	StatusOnHold       RequestStatus = "on_hold"
	StatusCancelled    RequestStatus = "cancelled"
)

// RequestStatuses lists every status in pipeline order.
var RequestStatuses = []RequestStatus{
	StatusOpen,
	StatusSourcing,
	StatusShortlisted,
	StatusInterviewing,
	StatusAllocated,
	StatusOnHold,
	StatusCancelled,
}

// RequestSource is where a request originated.
type RequestSource string

const (
	SourceProject     RequestSource = "project"
	SourceOpportunity RequestSource = "opportunity"
	SourceInternal    RequestSource = "internal"
)

// RequestSources lists every source category.
var RequestSources = []RequestSource{SourceProject, SourceOpportunity, SourceInternal}

// SLAState is the service-level status of a request at a point in time.
type SLAState string

const (
	SLAOnTrack  SLAState = "on_track"
	SLAAtRisk   SLAState = "at_risk"
	SLABreached SLAState = "breached"
	SLAMet      SLAState = "met"
	SLAClosed   SLAState = "closed"
)

// SLAStates lists every SLA state in display order.
var SLAStates = []SLAState{SLAOnTrack, SLAAtRisk, SLABreached, SLAMet, SLAClosed}

// slaRiskWindow is how close to the due date an open request turns at-risk.
const slaRiskWindow = 72 * time.Hour

// ResourceRequest is a staffing request raised against a project or opportunity.
type ResourceRequest struct {
	ID        string        `json:"id"`
	Project   string        `json:"project"`
	Source    RequestSource `json:"source"`
	Skill     string        `json:"skill"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Requester string        `json:"requester"`
	Status    RequestStatus `json:"status"`
	RaisedAt  time.Time     `json:"raised_at"`
	DueDate   time.Time     `json:"due_date"`
}

// SLAState derives the SLA status as of asOf.
func (r ResourceRequest) SLAState(asOf time.Time) SLAState {
	switch r.Status {
	case StatusCancelled:
		return SLAClosed
	case StatusAllocated:
		return SLAMet
	}
	if asOf.After(r.DueDate) {
		return SLABreached
	}
	if r.DueDate.Sub(asOf) <= slaRiskWindow {
		return SLAAtRisk
	}
	return SLAOnTrack
}

// SkillDemand compares open demand with available supply for a skill.
type SkillDemand struct {
	Name   string `json:"name"`
	Demand int    `json:"demand"`
	Supply int    `json:"supply"`
}

// Gap is demand minus supply; positive means a shortage.
func (s SkillDemand) Gap() int {
	return s.Demand - s.Supply
}

// RegionHours aggregates hours for a delivery region over the reporting period.
type RegionHours struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Planned   float64 `json:"planned"`
	Allocated float64 `json:"allocated"`
	Billed    float64 `json:"billed"`
	Logged    float64 `json:"logged"`
}

// Utilization is billed over planned hours, 0 when nothing was planned.
func (r RegionHours) Utilization() float64 {
	if r.Planned == 0 {
		return 0
	}
	return r.Billed / r.Planned
}

// BenchEmployee is a staff member without billable allocation.
type BenchEmployee struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BenchStart   time.Time       `json:"bench_start"`
	DailyCost    decimal.Decimal `json:"daily_cost"`
	Compensation decimal.Decimal `json:"compensation"`
	Location     string          `json:"location"`
	PrimarySkill string          `json:"primary_skill"`
}

// DaysOnBench counts whole days between BenchStart and asOf.
func (e BenchEmployee) DaysOnBench(asOf time.Time) int {
	if asOf.Before(e.BenchStart) {
		return 0
	}
	return int(asOf.Sub(e.BenchStart).Hours() / 24)
}

// Dataset is the immutable snapshot every widget derives its view from.
// AsOf is the reference instant for time-relative derivations.
type Dataset struct {
	AsOf     time.Time         `json:"as_of"`
	Requests []ResourceRequest `json:"requests"`
	Skills   []SkillDemand     `json:"skills"`
	Regions  []RegionHours     `json:"regions"`
	Bench    []BenchEmployee   `json:"bench"`
}

// Clone copies every slice so callers cannot mutate the source.
func (d Dataset) Clone() Dataset {
	return Dataset{
		AsOf:     d.AsOf,
		Requests: append([]ResourceRequest(nil), d.Requests...),
		Skills:   append([]SkillDemand(nil), d.Skills...),
		Regions:  append([]RegionHours(nil), d.Regions...),
		Bench:    append([]BenchEmployee(nil), d.Bench...),
	}
}

// Request looks up a request by ID.
func (d Dataset) Request(id string) (ResourceRequest, bool) {
	for _, r := range d.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceRequest{}, false
}

// Skill looks up a skill by name.
func (d Dataset) Skill(name string) (SkillDemand, bool) {
	for _, s := range d.Skills {
		if s.Name == name {
			return s, true
		}
	}
	return SkillDemand{}, false
}

// Region looks up a region by code.
func (d Dataset) Region(code string) (RegionHours, bool) {
	for _, r := range d.Regions {
		if r.Code == code {
			return r, true
		}
	}
	return RegionHours{}, false
}

// Employee looks up a bench employee by ID.
func (d Dataset) Employee(id string) (BenchEmployee, bool) {
	for _, e := range d.Bench {
		if e.ID == id {
			return e, true
		}
	}
	return BenchEmployee{}, false
}
