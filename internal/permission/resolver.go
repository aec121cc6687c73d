package permission

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"saha.org/internal/obs"
)

// DefaultLoadTimeout bounds one grant table load.
const DefaultLoadTimeout = 30 * time.Second

// Resolver caches the grant table of the current identity and coalesces
// concurrent loads. Load failures resolve to deny.
//
// Invalidate starts a new generation: a load that began before it never
// populates the cache, and callers arriving after it never join that load.
type Resolver struct {
	source      Source
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	gen      uint64
	table    Table
	loadedAt time.Time
	loaded   bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTTL sets how long a loaded table is reused. Zero disables caching.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithLoadTimeout bounds a single load, which runs detached from the
// cancellation of the caller that started it.
func WithLoadTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.loadTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewResolver returns a Resolver over source.
func NewResolver(source Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source, ttl: 5 * time.Minute, loadTimeout: DefaultLoadTimeout, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the permission for (link, view).
func (r *Resolver) Resolve(ctx context.Context, link, view string) ViewPermission {
	table, err := r.Table(ctx)
	if err != nil {
		obs.Warn("permission_table_unavailable", map[string]any{"error": err.Error(), "link": link, "view": view})
		return ViewPermission{}
	}
	return table.Lookup(link, view)
}

// Table returns the cached table, loading it when stale. A caller whose ctx
// ends stops waiting; the shared load carries on for the others.
func (r *Resolver) Table(ctx context.Context) (Table, error) {
	r.mu.RLock()
	gen := r.gen
	if r.loaded && r.ttl > 0 && r.now().Sub(r.loadedAt) < r.ttl {
		t := r.table
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	ch := r.group.DoChan("grants:"+strconv.FormatUint(gen, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		grants, err := r.source.Grants(loadCtx)
		if err != nil {
			return Table{}, err
		}
		t := NewTable(grants)
		r.mu.Lock()
		if r.gen == gen {
			r.table = t
			r.loadedAt = r.now()
			r.loaded = true
		}
		r.mu.Unlock()
		return t, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Table{}, res.Err
		}
		return res.Val.(Table), nil
	case <-ctx.Done():
		return Table{}, ctx.Err()
	}
}

// Invalidate drops the cached table. Called on every identity change.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.table = Table{}
	r.loaded = false
	r.mu.Unlock()
}
