// Package cache provides the Redis-backed caches: a low-level byte cache and
// the repository fingerprint cache built on top of it.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/daehyunkim/repopersona/pkg/models"
)

// RepoCache maps a normalized (owner, repo) pair to a previously computed
// analysis. It is a pure optimization: every backing-store failure is
// swallowed and reported as a miss on read or a no-op on write, so a cache
// outage degrades latency, never correctness.
type RepoCache struct {
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewRepoCache creates a RepoCache on top of the given byte cache. Records
// expire a fixed ttl after they are written.
func NewRepoCache(c Cache, ttl time.Duration) *RepoCache {
	return &RepoCache{cache: c, ttl: ttl, now: time.Now}
}

// Get returns the cached record for (owner, repo), or ok=false on miss,
// expiry, or any backing-store failure. A record past its expiry is deleted
// before reporting the miss, so expiry needs no background sweep to hold.
func (rc *RepoCache) Get(ctx context.Context, owner, repo string) (*models.CacheRecord, bool) {
	key := RepoKey(owner, repo)

	raw, found, err := rc.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("repo cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var rec models.CacheRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("repo cache record corrupt, evicting", "key", key, "error", err)
		_ = rc.cache.Delete(ctx, key)
		return nil, false
	}

	if rec.Expired(rc.now()) {
		if err := rc.cache.Delete(ctx, key); err != nil {
			slog.Warn("repo cache eviction failed", "key", key, "error", err)
		}
		return nil, false
	}

	return &rec, true
}

// Set writes a record for (owner, repo), unconditionally overwriting any
// existing record for that key. Failures are logged and ignored.
func (rc *RepoCache) Set(ctx context.Context, owner, repo string, facts models.RepoFacts, p models.Personality) {
	now := rc.now()
	rec := models.CacheRecord{
		Owner:       owner,
		Repo:        repo,
		AnalyzedAt:  now,
		ExpiresAt:   now.Add(rc.ttl),
		Facts:       facts,
		Personality: p,
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("repo cache record marshal failed", "owner", owner, "repo", repo, "error", err)
		return
	}

	if err := rc.cache.Set(ctx, RepoKey(owner, repo), raw, rc.ttl); err != nil {
		slog.Warn("repo cache write failed", "owner", owner, "repo", repo, "error", err)
	}
}

// EvictExpired scans all repo records and deletes those past expiry,
// returning the number deleted. Maintenance entry point; correctness does not
// depend on it because Get evicts on read.
func (rc *RepoCache) EvictExpired(ctx context.Context) int {
	keys, err := rc.cache.Keys(ctx, RepoKeyPattern())
	if err != nil {
		slog.Warn("repo cache sweep scan failed", "error", err)
		return 0
	}

	deleted := 0
	now := rc.now()
	for _, key := range keys {
		raw, found, err := rc.cache.Get(ctx, key)
		if err != nil || !found {
			continue
		}
		var rec models.CacheRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Expired(now) {
			if rc.cache.Delete(ctx, key) == nil {
				deleted++
			}
		}
	}
	return deleted
}

// Clear deletes every repo record and returns the number deleted.
func (rc *RepoCache) Clear(ctx context.Context) int {
	keys, err := rc.cache.Keys(ctx, RepoKeyPattern())
	if err != nil {
		slog.Warn("repo cache clear scan failed", "error", err)
		return 0
	}

	deleted := 0
	for _, key := range keys {
		if rc.cache.Delete(ctx, key) == nil {
			deleted++
		}
	}
	return deleted
}
