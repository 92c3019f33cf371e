// Package gateway is the client's view of the remote API: tagged reads backed
// by a snapshot cache, writes that invalidate tags, and subscriber callbacks
// that let dependants refetch after invalidation.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/terramo-esg/terramo/internal/logging"
)

// Tag names a family of cached reads.
type Tag string

const (
	TagQuestions            Tag = "Questions"
	TagClientAdminDashboard Tag = "ClientAdminDashboard"
	TagStakeholderGroups    Tag = "StakeholderGroups"
	TagStakeholder          Tag = "Stakeholder"
	TagStakeholderAnalysis  Tag = "StakeholderAnalysis"
)

// Query is a cacheable GET.
type Query struct {
	Tag    Tag
	Path   string
	Params url.Values
}

func (q Query) key() string {
	return string(q.Tag) + " " + q.Path + "?" + q.Params.Encode()
}

// Mutation is a single write and the tags it makes stale.
type Mutation struct {
	Method      string
	Path        string
	Body        any
	Invalidates []Tag
}

// flightTimeout bounds a shared read once it no longer follows its first
// caller's context.
const flightTimeout = 30 * time.Second

// Gateway fetches, caches and invalidates server state.
type Gateway struct {
	transport Transport
	store     SnapshotStore
	logger    *zap.Logger
	now       func() time.Time

	flight singleflight.Group

	mu      sync.Mutex
	gens    map[Tag]uint64
	subs    map[Tag]map[int]func(Tag)
	nextSub int
}

// New returns a gateway. A nil store selects the in-memory store.
func New(transport Transport, store SnapshotStore, logger *zap.Logger) *Gateway {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Gateway{
		transport: transport,
		store:     store,
		logger:    logging.OrNop(logger),
		now:       func() time.Time { return time.Now().UTC() },
		gens:      map[Tag]uint64{},
		subs:      map[Tag]map[int]func(Tag){},
	}
}

// Fetch returns the cached snapshot for q, reading from the API when the tag
// has no snapshot or was invalidated. out, if non-nil, receives a freshly
// decoded copy.
func (g *Gateway) Fetch(ctx context.Context, q Query, out any) (Snapshot, error) {
	key := q.key()
	snap, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("snapshot read failed, fetching", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if !ok {
		if snap, err = g.load(ctx, q, key); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, decode(snap, out)
}

// Refetch bypasses the cache.
func (g *Gateway) Refetch(ctx context.Context, q Query, out any) (Snapshot, error) {
	snap, err := g.load(ctx, q, q.key())
	if err != nil {
		return Snapshot{}, err
	}
	return snap, decode(snap, out)
}

// load performs one network read. Callers asking for the same key while a read
// is in flight share its result; a caller whose ctx ends stops waiting without
// cancelling the read for the others. A read that overlaps an invalidation of
// its tag is returned to its callers but not left in the cache.
func (g *Gateway) load(ctx context.Context, q Query, key string) (Snapshot, error) {
	gen := g.generation(q.Tag)
	ch := g.flight.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return g.read(fctx, q, key, gen)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		if res.Shared {
			g.logger.Debug("shared in-flight read", zap.String("key", key))
		}
		return res.Val.(Snapshot), nil
	}
}

func (g *Gateway) read(ctx context.Context, q Query, key string, gen uint64) (Snapshot, error) {
	data, err := g.transport.Do(ctx, Request{Method: http.MethodGet, Path: q.Path, Query: q.Params})
	if err != nil {
		return Snapshot{}, err
	}
	version, err := g.store.NextVersion(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot version: %w", err)
	}
	snap := Snapshot{Tag: q.Tag, Data: data, Version: version, FetchedAt: g.now()}
	if g.generation(q.Tag) != gen {
		g.logger.Debug("tag invalidated during read, not caching", zap.String("key", key))
		return snap, nil
	}
	if err := g.store.Put(ctx, key, snap); err != nil {
		g.logger.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
		return snap, nil
	}
	// An invalidation may have landed between the check and the write.
	if g.generation(q.Tag) != gen {
		g.logger.Debug("tag invalidated while caching, dropping", zap.String("key", key))
		if err := g.store.DropTag(ctx, q.Tag); err != nil {
			g.logger.Warn("snapshot drop failed", zap.String("tag", string(q.Tag)), zap.Error(err))
		}
	}
	return snap, nil
}

// Mutate sends one write. On success the mutation's tags are invalidated
// before Mutate returns. out, if non-nil, receives the decoded response body.
func (g *Gateway) Mutate(ctx context.Context, m Mutation, out any) error {
	data, err := g.transport.Do(ctx, Request{Method: m.Method, Path: m.Path, Body: m.Body})
	if err != nil {
		return err
	}
	g.Invalidate(ctx, m.Invalidates...)
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", m.Method, m.Path, err)
	}
	return nil
}

// Invalidate drops the snapshots of tags and notifies their subscribers
// synchronously, in subscription order.
func (g *Gateway) Invalidate(ctx context.Context, tags ...Tag) {
	for _, tag := range tags {
		g.mu.Lock()
		g.gens[tag]++
		fns := make([]func(Tag), 0, len(g.subs[tag]))
		for id := 0; id < g.nextSub; id++ {
			if fn, ok := g.subs[tag][id]; ok {
				fns = append(fns, fn)
			}
		}
		g.mu.Unlock()

		if err := g.store.DropTag(ctx, tag); err != nil {
			g.logger.Warn("snapshot drop failed", zap.String("tag", string(tag)), zap.Error(err))
		}
		g.logger.Debug("invalidated", zap.String("tag", string(tag)), zap.Int("subscribers", len(fns)))
		for _, fn := range fns {
			fn(tag)
		}
	}
}

// Subscribe registers fn to run whenever tag is invalidated. The returned
// function removes the subscription.
func (g *Gateway) Subscribe(tag Tag, fn func(Tag)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextSub
	g.nextSub++
	if g.subs[tag] == nil {
		g.subs[tag] = map[int]func(Tag){}
	}
	g.subs[tag][id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs[tag], id)
	}
}

// Close releases the snapshot store.
func (g *Gateway) Close() error {
	return g.store.Close()
}

func (g *Gateway) generation(tag Tag) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[tag]
}

func decode(snap Snapshot, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(snap.Data, out); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", snap.Tag, err)
	}
	return nil
}
