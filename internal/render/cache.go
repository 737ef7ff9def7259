// Package render implements the memoized per-message render cache (C1)
// and the Markdown/syntax/LaTeX/image rendering pipeline it calls into.
// The cache is grounded on the teacher's internal/render/chat package
// (BlockCache, MessageBlock) and, for the exact viewport-render
// algorithm, on original_source's render/cache/viewport.rs.
package render

import (
	"hash/fnv"

	"github.com/deepchat/deepchat/internal/chatmodel"
)

// CacheEntry is one message's memoized render, keyed implicitly by its
// slot in Cache.entries (index-addressed, matching original_source's
// Vec<RenderCacheEntry>) plus the explicit key fields spec.md §3
// requires: content hash, width, theme, and a streaming bit, so a
// change in any of them is detectable without rehashing the others.
type CacheEntry struct {
	ContentHash  uint64
	Width        int
	ThemeKey     uint64
	StreamingBit bool
	Lines        []string
	LineCount    int
	Rendered     bool
}

// stale reports whether entry no longer matches the key a message would
// produce right now.
func (e *CacheEntry) stale(hash uint64, width int, themeKey uint64, streaming bool) bool {
	return e.ContentHash != hash || e.Width != width || e.ThemeKey != themeKey || e.StreamingBit != streaming
}

// Cache holds one CacheEntry per message for a single tab. PendingShift
// is the cache's counterpart of App.CacheShift: a non-nil value means
// entries from that index onward must be re-indexed before the next read
// (spec.md §4.1 invariant ii). Nothing copies App.CacheShift into it;
// PendingShift is only set by direct assignment.
type Cache struct {
	entries      []CacheEntry
	PendingShift *int
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{} }

// Len returns the number of entries currently tracked.
func (c *Cache) Len() int { return len(c.entries) }

// ApplyShift inserts a fresh zero-value entry at *PendingShift and
// clears PendingShift; a negative or past-the-end index inserts nothing
// and removes nothing (SPEC_FULL's only producer of a shift is a
// prepend, so this always inserts in practice). Must be called before
// any read in a frame, per original_source's App::set_system_prompt
// pattern of invalidating downstream cache positions on insert.
func (c *Cache) ApplyShift() {
	if c.PendingShift == nil {
		return
	}
	at := *c.PendingShift
	if at >= 0 && at <= len(c.entries) {
		c.entries = append(c.entries, CacheEntry{})
		copy(c.entries[at+1:], c.entries[at:])
		c.entries[at] = CacheEntry{}
	}
	c.PendingShift = nil
}

// Ensure returns the entry for index, growing the slice if needed,
// matching original_source's ensure_cache_entry.
func (c *Cache) Ensure(index int) *CacheEntry {
	for len(c.entries) <= index {
		c.entries = append(c.entries, CacheEntry{})
	}
	return &c.entries[index]
}

// SetEntry installs a preheat-computed entry at index, growing the
// cache like Ensure when the tab has not rendered that far yet; used by
// the preheat pool to apply background results. The caller
// (runtime.Loop.applyPreheatResults) discards results whose message no
// longer exists (spec.md §4.2 Failure policy).
func (c *Cache) SetEntry(index int, entry CacheEntry) {
	if index < 0 {
		return
	}
	*c.Ensure(index) = entry
}

// Update invalidates and/or recomputes the key fields of entry for msg;
// it does not render content — that only happens in RenderViewport's
// maybe_render_entry step (or CountLines). Invalidation resets LineCount
// to 0.
func Update(entry *CacheEntry, msg chatmodel.Message, width int, themeKey uint64, streaming bool) {
	hash := HashText(msg.TextContent())
	if entry.stale(hash, width, themeKey, streaming) {
		entry.ContentHash = hash
		entry.Width = width
		entry.ThemeKey = themeKey
		entry.StreamingBit = streaming
		entry.Lines = nil
		entry.LineCount = 0
		entry.Rendered = false
	}
}

// HashText is the cache's content-hash function. FNV-1a is sufficient —
// the cache only needs collision resistance against accidental content
// equality within a single process's lifetime, not cryptographic
// properties.
func HashText(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
