// Package cache holds derived per-member views for a short TTL. Entries are
// keyed by contract member id and must be invalidated by every write that
// touches that member.
package cache

import (
	"context"
	"time"
)

const DefaultTTL = 5 * time.Minute

// MemberCache stores JSON encodable values per member id.
type MemberCache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, memberID string, dst any) (bool, error)
	Set(ctx context.Context, memberID string, value any) error
	Invalidate(ctx context.Context, memberIDs ...string) error
}

func memberKey(memberID string) string {
	return "contratos:member:" + memberID
}
