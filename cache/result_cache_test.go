package cache

import (
	"testing"
	"time"

	"github.com/loomworks/loom/model"
	"github.com/stretchr/testify/require"
)

func successResult(output any) model.NodeResult {
	return model.NodeResult{Success: true, Output: output, DurationMs: 5}
}

func TestFingerprintDeterministic(t *testing.T) {
	config := map[string]any{"text": "hi", "prefix": "X-"}
	inputs := map[string]any{"A": "hi"}
	first := Fingerprint("echo", config, inputs)
	second := Fingerprint("echo", map[string]any{"prefix": "X-", "text": "hi"}, inputs)
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestFingerprintDiscriminates(t *testing.T) {
	inputs := map[string]any{"A": "hi"}
	base := Fingerprint("echo", map[string]any{"text": "hi"}, inputs)
	require.NotEqual(t, base, Fingerprint("echo", map[string]any{"text": "ho"}, inputs))
	require.NotEqual(t, base, Fingerprint("concat", map[string]any{"text": "hi"}, inputs))
	require.NotEqual(t, base, Fingerprint("echo", map[string]any{"text": "hi"}, map[string]any{"A": "ho"}))
}

func TestGetPutRoundTrip(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	key := Fingerprint("echo", map[string]any{"text": "hi"}, nil)

	_, found := rc.Get(key)
	require.False(t, found)

	rc.Put(key, successResult("hi"), time.Minute)
	stored, found := rc.Get(key)
	require.True(t, found)
	require.Equal(t, "hi", stored.Output)

	stats := rc.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, 0.5, stats.HitRate)
	require.Equal(t, 1, stats.Size)
}

func TestFailedResultsAreNotStored(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	rc.Put("k", model.NodeResult{Success: false, Error: "boom"}, time.Minute)
	_, found := rc.Get("k")
	require.False(t, found)
}

func TestExpiry(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	rc.Put("k", successResult(1), 20*time.Millisecond)

	_, found := rc.Get("k")
	require.True(t, found)

	time.Sleep(40 * time.Millisecond)
	_, found = rc.Get("k")
	require.False(t, found)
}

func TestLruEviction(t *testing.T) {
	rc := NewResultCache(2, time.Minute)
	rc.Put("a", successResult("a"), time.Minute)
	rc.Put("b", successResult("b"), time.Minute)

	// touch a so b becomes the least recently used entry
	_, found := rc.Get("a")
	require.True(t, found)

	rc.Put("c", successResult("c"), time.Minute)

	_, found = rc.Get("b")
	require.False(t, found)
	_, found = rc.Get("a")
	require.True(t, found)
	_, found = rc.Get("c")
	require.True(t, found)
}

func TestClear(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	rc.Put("a", successResult("a"), time.Minute)
	rc.Clear()
	_, found := rc.Get("a")
	require.False(t, found)
	stats := rc.Stats()
	require.Equal(t, 0, stats.Size)
	require.Equal(t, int64(1), stats.Misses)
}
