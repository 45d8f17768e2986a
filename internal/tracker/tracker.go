// Package tracker records which chunk resource keys have been handed off,
// so that later runs can skip them. Marking is idempotent and every
// backend is safe for concurrent use.
package tracker

import (
	"context"
	"strings"
)

// Tracker is the progress store shared by concurrent ingestion workers.
type Tracker interface {
	Has(ctx context.Context, key string) (bool, error)
	// HasMany reports, for each key, whether it is marked. Keys absent
	// from the result are not marked.
	HasMany(ctx context.Context, keys []string) (map[string]bool, error)
	Mark(ctx context.Context, key string) error
	MarkMany(ctx context.Context, keys []string) error
	CountByPrefix(ctx context.Context, prefix string) (int, error)
	ClearByPrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Pending returns the keys that are not yet marked, in input order.
func Pending(ctx context.Context, t Tracker, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	marked, err := t.HasMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !marked[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// escapeLike escapes LIKE wildcards so that prefix matches literally.
func escapeLike(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}

// escapeGlob escapes redis SCAN MATCH metacharacters.
func escapeGlob(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(prefix)
}
