// Package lockmgr enforces the named advisory lock domains and their
// total acquisition order (spec §5): AUCTION before DRAFT before
// ROSTER. Actual locking is done by the database (pg_advisory_xact_lock,
// see internal/txrunner); this package only derives stable lock keys
// and guards against a caller violating the published order.
package lockmgr

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Domain is a named advisory lock domain. Values are ordered by their
// priority: lower values must be acquired before higher ones within a
// single logical operation.
type Domain int

const (
	Auction Domain = iota + 1
	Draft
	Roster
)

func (d Domain) String() string {
	switch d {
	case Auction:
		return "AUCTION"
	case Draft:
		return "DRAFT"
	case Roster:
		return "ROSTER"
	default:
		return "UNKNOWN"
	}
}

// Key derives the two int32 arguments pg_advisory_xact_lock expects
// from a domain and an entity id. Both halves come from one FNV-64a
// hash of "domain:id", so AUCTION(5) and DRAFT(5) hash to different
// keys.
func Key(domain Domain, entityID int64) (k1, k2 int32) {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", domain, entityID)
	sum := h.Sum64()
	return int32(sum >> 32), int32(sum)
}

type heldDomainsKey struct{}

// WithDomain records that domain has just been acquired on ctx, for the
// ordering check in CheckOrder. Call this right before issuing the
// advisory-lock statement.
func WithDomain(ctx context.Context, domain Domain) context.Context {
	held, _ := ctx.Value(heldDomainsKey{}).([]Domain)
	next := make([]Domain, len(held)+1)
	copy(next, held)
	next[len(held)] = domain
	return context.WithValue(ctx, heldDomainsKey{}, next)
}

// CheckOrder reports an error if acquiring domain now would violate the
// total order against locks already held on ctx (spec §5: "no operation
// holds two locks of different domains simultaneously" unless acquired
// in priority order, AUCTION first). It is a programming-error guard,
// not a correctness mechanism — the database is the actual enforcer.
func CheckOrder(ctx context.Context, domain Domain) error {
	held, _ := ctx.Value(heldDomainsKey{}).([]Domain)
	for _, h := range held {
		if h == domain {
			return fmt.Errorf("lockmgr: domain %s already held on this context", domain)
		}
		if h > domain {
			return fmt.Errorf("lockmgr: lock order violation: %s held, attempted to acquire %s (must acquire %s before %s)", h, domain, domain, h)
		}
	}
	return nil
}
