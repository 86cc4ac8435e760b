package memory

import (
	"sort"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

const maxEntriesPerField = 3

// IsDecayed reports whether a highlight must no longer render verbatim.
func IsDecayed(h core.Highlight, now time.Time, threshold time.Duration) bool {
	return h.Granularity == core.GranularityCompacted || h.Age(now) > threshold
}

// renderHighlight picks the text a highlight shows at the given moment.
// Stored compacted values are already coarse; verbatim ones past the
// threshold are coarsened on read until the compactor replaces them.
func renderHighlight(h core.Highlight, now time.Time, threshold time.Duration) core.HighlightEntry {
	entry := core.HighlightEntry{
		Field:     h.Field,
		Text:      h.Value,
		CreatedAt: h.CreatedAt,
	}
	switch {
	case h.Granularity == core.GranularityCompacted:
		entry.Compacted = true
	case h.Age(now) > threshold:
		entry.Compacted = true
		entry.Text = coarseForm(h.Field, []core.Highlight{h})
	}
	return entry
}

// partitionHighlights sorts highlights into the fixed buckets. Empty fields
// and empty buckets are dropped; unknown fields are ignored.
func partitionHighlights(highlights []core.Highlight, now time.Time, threshold time.Duration) []core.HighlightBucket {
	byField := make(map[core.HighlightField][]core.Highlight)
	for _, h := range highlights {
		if !h.Field.Valid() || h.Value == "" {
			continue
		}
		byField[h.Field] = append(byField[h.Field], h)
	}

	var buckets []core.HighlightBucket
	for _, b := range core.Buckets {
		bucket := core.HighlightBucket{Bucket: b}
		for _, field := range b.Fields() {
			items := byField[field]
			if len(items) == 0 {
				continue
			}
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			})
			if len(items) > maxEntriesPerField {
				items = items[len(items)-maxEntriesPerField:]
			}
			for _, h := range items {
				bucket.Entries = append(bucket.Entries, renderHighlight(h, now, threshold))
			}
		}
		if len(bucket.Entries) > 0 {
			buckets = append(buckets, bucket)
		}
	}
	return buckets
}
