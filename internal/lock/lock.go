// Package lock serializes writers per resource key ahead of the database
// transaction. The database row lock remains the authority; a Locker only
// keeps contending writers from piling up on it, or provides the
// serialization when the store has no row locks (sqlite).
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire takes every key or none. The returned release is safe to call
	// more than once.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

func ResourceKey(resourceID int64) string {
	return fmt.Sprintf("resource:%d", resourceID)
}

// normalize sorts and dedupes keys so that multi-key acquisitions always
// happen in the same order and cannot deadlock each other.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Noop struct{}

func (Noop) Acquire(context.Context, ...string) (func(), error) {
	return func() {}, nil
}
