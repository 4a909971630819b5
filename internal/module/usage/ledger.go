package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Bucket identifies which credit pool a consume draws from.
type Bucket string

const (
	BucketDaily Bucket = "daily"
	BucketBoost Bucket = "boost"
	BucketNone  Bucket = "none"
)

// RemainingInfo is a point-in-time snapshot of a user's credits. It is read
// once per generation request and passed back into ConsumeOne so the consume
// does not need a second read. It is a snapshot only: concurrent requests may
// consume credits between the read and the consume.
type RemainingInfo struct {
	DailyRemaining     int        `json:"daily_remaining"`
	BoostPackRemaining int        `json:"boost_pack_remaining"`
	DailyLimit         int        `json:"daily_limit"`
	MembershipExpires  *time.Time `json:"membership_expires,omitempty"`
	BoostPackExpires   *time.Time `json:"boost_pack_expires,omitempty"`
}

// Total returns the combined remaining credits.
func (i *RemainingInfo) Total() int {
	return i.DailyRemaining + i.BoostPackRemaining
}

// HasCredits reports whether a generation may proceed.
func (i *RemainingInfo) HasCredits() bool {
	return i.Total() > 0
}

// ChooseBucket returns the pool a consume should draw from: daily credits
// while any remain, then the boost pack balance.
func ChooseBucket(info *RemainingInfo) Bucket {
	switch {
	case info.DailyRemaining > 0:
		return BucketDaily
	case info.BoostPackRemaining > 0:
		return BucketBoost
	default:
		return BucketNone
	}
}

// ErrNoCredits is returned by ConsumeOne when both pools are empty.
var ErrNoCredits = errors.New("no credits remaining")

// Ledger tracks per-user generation credits.
type Ledger interface {
	// GetRemaining reads the current snapshot for today (UTC). Two reads
	// without an intervening consume return the same snapshot.
	GetRemaining(ctx context.Context, userID uuid.UUID) (*RemainingInfo, error)

	// ConsumeOne records one completed generation, decrementing the daily
	// pool first and the boost pack once the daily pool is exhausted. It
	// must only be called after a successful generation. The returned
	// bucket says which pool was charged.
	ConsumeOne(ctx context.Context, userID uuid.UUID, info *RemainingInfo) (Bucket, error)
}

// Granter extends the ledger with credit grants, used by billing.
type Granter interface {
	// GrantBoostPack adds credits to the user's boost pack balance and
	// refreshes its expiry.
	GrantBoostPack(ctx context.Context, userID uuid.UUID, credits int) error

	// GrantMembership marks the user as a member until the given time.
	GrantMembership(ctx context.Context, userID uuid.UUID, until time.Time) error
}

// endOfDayUTC returns the next UTC midnight after t. Daily counters expire
// there; UTC is the ledger's canonical clock.
func endOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}
