package services

import (
	"artist-discovery-service/internal/domain"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NearbyFeed holds the committed nearby list for one viewer. Refreshes may
// overlap; only the most recently started one is allowed to commit.
type NearbyFeed struct {
	discovery *Discovery

	gen atomic.Uint64

	mu        sync.Mutex
	committed []domain.RankedCandidate
}

func NewNearbyFeed(discovery *Discovery) *NearbyFeed {
	return &NearbyFeed{discovery: discovery, committed: []domain.RankedCandidate{}}
}

// Refresh runs discovery and commits the result if no newer refresh has
// started meanwhile. It returns the list that is committed afterwards and
// whether this call's result was the one applied.
func (f *NearbyFeed) Refresh(ctx context.Context, req DiscoveryRequest) ([]domain.RankedCandidate, bool, error) {
	token := f.gen.Add(1)

	list, err := f.discovery.Discover(ctx, req)
	if err != nil {
		return f.Current(), false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gen.Load() != token {
		return slices.Clone(f.committed), false, nil
	}
	f.committed = list
	return slices.Clone(list), true, nil
}

// Current returns a copy of the committed list.
func (f *NearbyFeed) Current() []domain.RankedCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.committed)
}

// FeedRegistry keeps one NearbyFeed per session and forgets idle sessions.
type FeedRegistry struct {
	discovery *Discovery
	feeds     *gocache.Cache
	mu        sync.Mutex
}

func NewFeedRegistry(discovery *Discovery, idle time.Duration) *FeedRegistry {
	if idle <= 0 {
		idle = time.Hour
	}
	return &FeedRegistry{
		discovery: discovery,
		feeds:     gocache.New(idle, idle/2),
	}
}

// For returns the session's feed, creating it on first use. Each call
// extends the session's idle window.
func (r *FeedRegistry) For(sessionID string) *NearbyFeed {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.feeds.Get(sessionID); ok {
		f := v.(*NearbyFeed)
		r.feeds.SetDefault(sessionID, f)
		return f
	}

	f := NewNearbyFeed(r.discovery)
	r.feeds.SetDefault(sessionID, f)
	return f
}

// Len reports the number of live sessions.
func (r *FeedRegistry) Len() int {
	return r.feeds.ItemCount()
}
