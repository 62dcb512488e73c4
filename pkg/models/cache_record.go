package models

import "time"

// CacheRecord is the fingerprint-cache entry for one (owner, repo) pair.
// A record past ExpiresAt is treated as absent and evicted on the next read.
type CacheRecord struct {
	Owner       string      `json:"owner"`
	Repo        string      `json:"repo"`
	AnalyzedAt  time.Time   `json:"analyzed_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Facts       RepoFacts   `json:"facts"`
	Personality Personality `json:"personality"`
}

// Expired reports whether the record is past its expiry at the given time.
func (r *CacheRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
