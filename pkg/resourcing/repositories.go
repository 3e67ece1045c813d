package resourcing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	dashboard "github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// DefaultSnapshotTTL is how long a fetched dataset is served before the
// upstream is queried again.
const DefaultSnapshotTTL = 5 * time.Minute

// RepositoryOptions tunes the snapshot cache.
type RepositoryOptions struct {
	TTL   time.Duration
	Clock func() time.Time
}

// Repository adapts a Client into a dashboard.ResourcingRepository. Each
// snapshot is fetched in one round of concurrent calls and reused until it
// expires, so widgets and filters always derive from the same dataset.
type Repository struct {
	client Client
	ttl    time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	snapshot  dashboard.Dataset
	fetchedAt time.Time
	lastErr   error
}

var _ dashboard.ResourcingRepository = (*Repository)(nil)

// NewRepository wraps client.
func NewRepository(client Client, opts RepositoryOptions) *Repository {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSnapshotTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Repository{client: client, ttl: opts.TTL, clock: opts.Clock}
}

// FetchDataset returns a copy of the current snapshot, refreshing it when
// expired. A failed refresh serves the previous snapshot and retries on the
// next call; the error is only returned when no snapshot was ever fetched.
func (r *Repository) FetchDataset(ctx context.Context) (dashboard.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	if !r.fetchedAt.IsZero() && now.Sub(r.fetchedAt) < r.ttl {
		return r.snapshot.Clone(), nil
	}
	ds, err := r.fetch(ctx, now)
	r.lastErr = err
	if err != nil {
		if r.snapshot.AsOf.IsZero() {
			return dashboard.Dataset{}, err
		}
		return r.snapshot.Clone(), nil
	}
	r.snapshot = ds
	r.fetchedAt = now
	return ds.Clone(), nil
}

// LastError reports the outcome of the most recent upstream refresh.
func (r *Repository) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Invalidate forces the next FetchDataset to query the upstream.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

func (r *Repository) fetch(ctx context.Context, now time.Time) (dashboard.Dataset, error) {
	ds := dashboard.Dataset{AsOf: now.UTC()}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		ds.Requests, err = r.client.FetchRequests(gctx)
		return err
	})
	group.Go(func() (err error) {
		ds.Skills, err = r.client.FetchSkills(gctx)
		return err
	})
	group.Go(func() (err error) {
		ds.Regions, err = r.client.FetchRegions(gctx)
		return err
	})
	group.Go(func() (err error) {
		ds.Bench, err = r.client.FetchBench(gctx)
		return err
	})
	if err := group.Wait(); err != nil {
		return dashboard.Dataset{}, err
	}
	return ds, nil
}
