package models

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Fetches int64 `json:"fetches"`
}

// Add returns the sum of two stats snapshots.
func (s CacheStats) Add(o CacheStats) CacheStats {
	return CacheStats{
		Entries: s.Entries + o.Entries,
		Hits:    s.Hits + o.Hits,
		Misses:  s.Misses + o.Misses,
		Fetches: s.Fetches + o.Fetches,
	}
}
