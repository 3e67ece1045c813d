package resourcing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

var fixtureBodies = map[string]string{
	"/requests": `{"requests": [{"id": "RR-1", "project": "Atlas", "source": "Project", "skill": "Go",
		"start_date": "2024-07-01", "end_date": "2024-12-31", "requester": "dm-1", "status": "OPEN",
		"raised_at": "2024-06-01T09:00:00Z", "due_date": "2024-06-20T09:00:00Z"}]}`,
	"/skills":      `{"skills": [{"name": "Go", "demand": 5, "supply": -1}]}`,
	"/utilization": `{"regions": [{"code": "emea", "hours": {"planned": 100, "allocated": 90, "billed": 80, "logged": 85}}]}`,
	"/bench": `{"employees": [{"id": "EMP-1", "name": "Asha", "bench_start": "2024-05-01",
		"daily_cost": "310.50", "compensation": "90000", "location": "Pune", "primary_skill": "Go"}]}`,
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected auth header, got %q", got)
		}
		body, ok := fixtureBodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClientDecodesEveryCollection(t *testing.T) {
	server := fixtureServer(t)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	requests, err := client.FetchRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, dashboard.SourceProject, requests[0].Source)
	assert.Equal(t, dashboard.StatusOpen, requests[0].Status)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), requests[0].StartDate)
	assert.Equal(t, time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC), requests[0].DueDate)

	skills, err := client.FetchSkills(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, skills[0].Supply, "negative supply is clamped")

	regions, err := client.FetchRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "emea", regions[0].Name)
	assert.InDelta(t, 0.8, regions[0].Utilization(), 1e-9)

	bench, err := client.FetchBench(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("310.50").Equal(bench[0].DailyCost))
	assert.Equal(t, "pune", bench[0].Location)
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.FetchSkills(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected remote error with status, got %v", err)
	}
}

func TestHTTPClientRejectsBadDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"employees": [{"id": "EMP-9", "bench_start": "last week", "daily_cost": "1", "compensation": "1"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.FetchBench(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMP-9")
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestHTTPClientRejectsUnknownEnumerations(t *testing.T) {
	const valid = `"id": "RR-1", "source": "project", "status": "open", "start_date": "2024-07-01",
		"end_date": "2024-12-31", "raised_at": "2024-06-01T09:00:00Z", "due_date": "2024-06-20T09:00:00Z"`
	cases := map[string]string{
		"status": `{"requests": [{` + valid + `}, {"id": "RR-2", "source": "project", "status": "in_progress",
			"start_date": "2024-07-01", "end_date": "2024-12-31", "raised_at": "2024-06-01T09:00:00Z", "due_date": "2024-06-20T09:00:00Z"}]}`,
		"source": `{"requests": [{` + valid + `}, {"id": "RR-2", "source": "partner", "status": "open",
			"start_date": "2024-07-01", "end_date": "2024-12-31", "raised_at": "2024-06-01T09:00:00Z", "due_date": "2024-06-20T09:00:00Z"}]}`,
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(server.Close)

			client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
			require.NoError(t, err)
			requests, err := client.FetchRequests(context.Background())
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), "RR-2")
			assert.Contains(t, err.Error(), field)
			assert.Nil(t, requests)
		})
	}
}
