package resourcing

import (
	"context"
	"sync"

	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// MockClient implements Client using an in-memory dataset.
type MockClient struct {
	mu    sync.RWMutex
	data  dashboard.Dataset
	err   error
	calls int
}

var _ Client = (*MockClient)(nil)

// NewMockClient serves data, e.g. dashboard.GenerateDataset output.
func NewMockClient(data dashboard.Dataset) *MockClient {
	return &MockClient{data: data.Clone()}
}

// SetError makes every subsequent call fail with err; nil clears it.
func (c *MockClient) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Calls counts FetchRequests invocations, one per snapshot refresh.
func (c *MockClient) Calls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls
}

func (c *MockClient) FetchRequests(context.Context) ([]dashboard.ResourceRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return append([]dashboard.ResourceRequest(nil), c.data.Requests...), nil
}

func (c *MockClient) FetchSkills(context.Context) ([]dashboard.SkillDemand, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]dashboard.SkillDemand(nil), c.data.Skills...), nil
}

func (c *MockClient) FetchRegions(context.Context) ([]dashboard.RegionHours, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]dashboard.RegionHours(nil), c.data.Regions...), nil
}

func (c *MockClient) FetchBench(context.Context) ([]dashboard.BenchEmployee, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]dashboard.BenchEmployee(nil), c.data.Bench...), nil
}
