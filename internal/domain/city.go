package domain

import "time"

// CityEntry is a geocoded city held by the coordinate cache.
// Entries are keyed by the normalized city name and expire once older than
// the cache time-to-live.
type CityEntry struct {
	Coordinates Coordinates
	DisplayName string
	CachedAt    time.Time
}

// Expired reports whether the entry is older than ttl at now.
func (e CityEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CachedAt) > ttl
}
