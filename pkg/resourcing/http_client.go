package resourcing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// ErrInvalidRecord marks upstream records whose enumerated fields fall outside
// the known values. Such records would be dropped from every breakdown, so the
// whole fetch fails instead.
var ErrInvalidRecord = errors.New("resourcing: invalid record")

// HTTPConfig configures the HTTP resourcing client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient reads staffing data from a resourcing API over REST.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the resourcing API at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("resourcing: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// FetchRequests implements RequestClient via GET /requests.
func (c *HTTPClient) FetchRequests(ctx context.Context) ([]dashboard.ResourceRequest, error) {
	var resp requestsResponse
	if err := c.get(ctx, "/requests", &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.ResourceRequest, 0, len(resp.Requests))
	for _, wire := range resp.Requests {
		req, err := wire.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// FetchSkills implements SkillClient via GET /skills.
func (c *HTTPClient) FetchSkills(ctx context.Context) ([]dashboard.SkillDemand, error) {
	var resp skillsResponse
	if err := c.get(ctx, "/skills", &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.SkillDemand, len(resp.Skills))
	for i, s := range resp.Skills {
		out[i] = dashboard.SkillDemand{Name: s.Name, Demand: s.Demand, Supply: max(s.Supply, 0)}
	}
	return out, nil
}

// FetchRegions implements UtilizationClient via GET /utilization.
func (c *HTTPClient) FetchRegions(ctx context.Context) ([]dashboard.RegionHours, error) {
	var resp utilizationResponse
	if err := c.get(ctx, "/utilization", &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.RegionHours, len(resp.Regions))
	for i, r := range resp.Regions {
		name := r.Name
		if name == "" {
			name = r.Code
		}
		out[i] = dashboard.RegionHours{
			Code:      r.Code,
			Name:      name,
			Planned:   r.Hours.Planned,
			Allocated: r.Hours.Allocated,
			Billed:    r.Hours.Billed,
			Logged:    r.Hours.Logged,
		}
	}
	return out, nil
}

// FetchBench implements BenchClient via GET /bench.
func (c *HTTPClient) FetchBench(ctx context.Context) ([]dashboard.BenchEmployee, error) {
	var resp benchResponse
	if err := c.get(ctx, "/bench", &resp); err != nil {
		return nil, err
	}
	out := make([]dashboard.BenchEmployee, 0, len(resp.Employees))
	for _, wire := range resp.Employees {
		emp, err := wire.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("resourcing: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("resourcing: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("resourcing: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("resourcing: decode %s: %w", path, err)
	}
	return nil
}

type requestWire struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	Source    string `json:"source"`
	Skill     string `json:"skill"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Requester string `json:"requester"`
	Status    string `json:"status"`
	RaisedAt  string `json:"raised_at"`
	DueDate   string `json:"due_date"`
}

type requestsResponse struct {
	Requests []requestWire `json:"requests"`
}

func (w requestWire) toRecord() (dashboard.ResourceRequest, error) {
	var (
		req = dashboard.ResourceRequest{
			ID:        w.ID,
			Project:   w.Project,
			Source:    dashboard.RequestSource(strings.ToLower(w.Source)),
			Skill:     w.Skill,
			Requester: w.Requester,
			Status:    dashboard.RequestStatus(strings.ToLower(w.Status)),
		}
		err error
	)
	if !slices.Contains(dashboard.RequestStatuses, req.Status) {
		return req, fmt.Errorf("%w: request %s has unknown status %q", ErrInvalidRecord, w.ID, w.Status)
	}
	if !slices.Contains(dashboard.RequestSources, req.Source) {
		return req, fmt.Errorf("%w: request %s has unknown source %q", ErrInvalidRecord, w.ID, w.Source)
	}
	if req.StartDate, err = parseDate(w.StartDate); err != nil {
		return req, fmt.Errorf("resourcing: request %s start_date: %w", w.ID, err)
	}
	if req.EndDate, err = parseDate(w.EndDate); err != nil {
		return req, fmt.Errorf("resourcing: request %s end_date: %w", w.ID, err)
	}
	if req.RaisedAt, err = time.Parse(time.RFC3339, w.RaisedAt); err != nil {
		return req, fmt.Errorf("resourcing: request %s raised_at: %w", w.ID, err)
	}
	if req.DueDate, err = time.Parse(time.RFC3339, w.DueDate); err != nil {
		return req, fmt.Errorf("resourcing: request %s due_date: %w", w.ID, err)
	}
	return req, nil
}

type skillWire struct {
	Name   string `json:"name"`
	Demand int    `json:"demand"`
	Supply int    `json:"supply"`
}

type skillsResponse struct {
	Skills []skillWire `json:"skills"`
}

type regionWire struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Hours struct {
		Planned   float64 `json:"planned"`
		Allocated float64 `json:"allocated"`
		Billed    float64 `json:"billed"`
		Logged    float64 `json:"logged"`
	} `json:"hours"`
}

type utilizationResponse struct {
	Regions []regionWire `json:"regions"`
}

type benchWire struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BenchStart   string          `json:"bench_start"`
	DailyCost    decimal.Decimal `json:"daily_cost"`
	Compensation decimal.Decimal `json:"compensation"`
	Location     string          `json:"location"`
	PrimarySkill string          `json:"primary_skill"`
}

type benchResponse struct {
	Employees []benchWire `json:"employees"`
}

func (w benchWire) toRecord() (dashboard.BenchEmployee, error) {
	start, err := parseDate(w.BenchStart)
	if err != nil {
		return dashboard.BenchEmployee{}, fmt.Errorf("resourcing: employee %s bench_start: %w", w.ID, err)
	}
	return dashboard.BenchEmployee{
		ID:           w.ID,
		Name:         w.Name,
		BenchStart:   start,
		DailyCost:    w.DailyCost,
		Compensation: w.Compensation,
		Location:     strings.ToLower(w.Location),
		PrimarySkill: w.PrimarySkill,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
