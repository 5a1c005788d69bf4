package cache

import (
	"artist-discovery-service/internal/domain"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const DefaultLocationTTL = time.Hour

// SessionLocationCache remembers each session's last known position for a
// short freshness window. It is memory only and dies with the process.
type SessionLocationCache struct {
	c   *gocache.Cache
	ttl time.Duration
	now func() time.Time
}

func NewSessionLocationCache(ttl time.Duration) *SessionLocationCache {
	if ttl <= 0 {
		ttl = DefaultLocationTTL
	}
	return &SessionLocationCache{
		c:   gocache.New(ttl, 10*time.Minute),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the session's location if it was acquired within the TTL.
func (s *SessionLocationCache) Get(sessionID string) (domain.UserLocation, bool) {
	v, ok := s.c.Get(sessionID)
	if !ok {
		return domain.UserLocation{}, false
	}

	loc, ok := v.(domain.UserLocation)
	if !ok || s.now().Sub(loc.AcquiredAt) >= s.ttl {
		s.c.Delete(sessionID)
		return domain.UserLocation{}, false
	}

	return loc, true
}

func (s *SessionLocationCache) Set(sessionID string, loc domain.UserLocation) {
	s.c.Set(sessionID, loc, gocache.DefaultExpiration)
}

func (s *SessionLocationCache) Delete(sessionID string) {
	s.c.Delete(sessionID)
}
