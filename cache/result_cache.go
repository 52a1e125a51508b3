package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/loomworks/loom/model"
	c "github.com/patrickmn/go-cache"
)

const DefaultMaxEntries = 1000

// Fingerprint derives the cache key for one node invocation: the kind, a
// colon, and the hex sha-256 of the canonical JSON of [kind, resolved
// config, inputs]. encoding/json
// emits map keys sorted and without insignificant whitespace, which makes
// the serialization canonical.
func Fingerprint(kind string, config map[string]any, inputs map[string]any) string {
	payload, err := json.Marshal([]any{kind, config, inputs})
	if err != nil {
		// non-serializable values cannot be fingerprinted; fold the error
		// into a key no Put will ever match
		return ""
	}
	sum := sha256.Sum256(payload)
	return kind + ":" + hex.EncodeToString(sum[:])
}

type Stats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// ResultCache memoizes successful node results by fingerprint. Entries
// expire after their TTL (tracked by the underlying go-cache store) and
// the table is bounded: once maxEntries is reached the least recently
// used entry is evicted. The lock is held only across map mutations.
type ResultCache struct {
	mu         sync.Mutex
	store      *c.Cache
	recency    *list.List
	elements   map[string]*list.Element
	maxEntries int
	hits       int64
	misses     int64
}

func NewResultCache(maxEntries int, defaultTTL time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		store:      c.New(defaultTTL, 10*time.Minute),
		recency:    list.New(),
		elements:   make(map[string]*list.Element),
		maxEntries: maxEntries,
	}
}

// Get returns the stored result if present and not expired. Hits refresh
// the entry's recency.
func (rc *ResultCache) Get(key string) (model.NodeResult, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	value, found := rc.store.Get(key)
	if !found {
		rc.misses++
		if element, ok := rc.elements[key]; ok {
			rc.recency.Remove(element)
			delete(rc.elements, key)
		}
		return model.NodeResult{}, false
	}
	rc.hits++
	if element, ok := rc.elements[key]; ok {
		rc.recency.MoveToBack(element)
	}
	return value.(model.NodeResult), true
}

// Put stores a successful result with the given TTL (zero means the
// cache's default). Failed results are never stored.
func (rc *ResultCache) Put(key string, result model.NodeResult, ttl time.Duration) {
	if key == "" || !result.Success {
		return
	}
	if ttl <= 0 {
		ttl = c.DefaultExpiration
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if element, ok := rc.elements[key]; ok {
		rc.store.Set(key, result, ttl)
		rc.recency.MoveToBack(element)
		return
	}
	for len(rc.elements) >= rc.maxEntries {
		oldest := rc.recency.Front()
		if oldest == nil {
			break
		}
		oldestKey := oldest.Value.(string)
		rc.store.Delete(oldestKey)
		rc.recency.Remove(oldest)
		delete(rc.elements, oldestKey)
	}
	rc.store.Set(key, result, ttl)
	rc.elements[key] = rc.recency.PushBack(key)
}

func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.store.Flush()
	rc.recency.Init()
	rc.elements = make(map[string]*list.Element)
	rc.hits = 0
	rc.misses = 0
}

func (rc *ResultCache) Stats() Stats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	total := rc.hits + rc.misses
	rate := 0.0
	if total > 0 {
		rate = float64(rc.hits) / float64(total)
	}
	return Stats{
		Size:    rc.store.ItemCount(),
		Hits:    rc.hits,
		Misses:  rc.misses,
		HitRate: rate,
	}
}
