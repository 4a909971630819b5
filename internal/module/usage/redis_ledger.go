package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/inkgen/server/internal/shared/errors"
)

const (
	dailyKeyPrefix  = "usage:daily:"
	boostKeyPrefix  = "usage:boost:"
	memberKeyPrefix = "usage:member:"
)

// Limits holds the credit policy applied by the ledger.
type Limits struct {
	FreeDaily    int
	MemberDaily  int
	BoostPackTTL time.Duration
}

// RedisLedger implements Ledger and Granter on top of Redis, which is the
// sole owner of persisted counts.
type RedisLedger struct {
	client redis.UniversalClient
	limits Limits
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisLedger creates a new Redis-backed credit ledger.
func NewRedisLedger(client redis.UniversalClient, limits Limits, logger *zap.Logger) *RedisLedger {
	return &RedisLedger{
		client: client,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

func dailyKey(userID uuid.UUID, day time.Time) string {
	return dailyKeyPrefix + userID.String() + ":" + day.UTC().Format("2006-01-02")
}

func boostKey(userID uuid.UUID) string {
	return boostKeyPrefix + userID.String()
}

func memberKey(userID uuid.UUID) string {
	return memberKeyPrefix + userID.String()
}

// GetRemaining reads the user's current credit snapshot.
func (l *RedisLedger) GetRemaining(ctx context.Context, userID uuid.UUID) (*RemainingInfo, error) {
	now := l.now().UTC()

	pipe := l.client.Pipeline()
	memberCmd := pipe.Get(ctx, memberKey(userID))
	dailyCmd := pipe.Get(ctx, dailyKey(userID, now))
	boostCmd := pipe.Get(ctx, boostKey(userID))
	boostTTLCmd := pipe.PTTL(ctx, boostKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		l.logger.Error("ledger read failed", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, apperrors.StoreUnavailable(err)
	}

	info := &RemainingInfo{DailyLimit: l.limits.FreeDaily}

	// Active membership raises the daily limit.
	if expireMs, err := memberCmd.Int64(); err == nil {
		expires := time.UnixMilli(expireMs)
		if expires.After(now) {
			info.DailyLimit = l.limits.MemberDaily
			info.MembershipExpires = &expires
		}
	}

	// Absent daily key means nothing consumed today.
	switch remaining, err := dailyCmd.Int(); err {
	case nil:
		info.DailyRemaining = remaining
	case redis.Nil:
		info.DailyRemaining = info.DailyLimit
	}

	if balance, err := boostCmd.Int(); err == nil {
		info.BoostPackRemaining = balance
	}
	if ttl, err := boostTTLCmd.Result(); err == nil && ttl > 0 && info.BoostPackRemaining > 0 {
		expires := now.Add(ttl)
		info.BoostPackExpires = &expires
	}

	return info, nil
}

// consumeScript decrements the daily counter while positive, falling back to
// the boost pack, without ever storing a negative value. The daily key is
// lazily initialized to limit-1 on first consume of the day.
var consumeScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local daily = redis.call('GET', KEYS[1])
if daily == false then
	if limit > 0 then
		redis.call('SET', KEYS[1], limit - 1, 'PX', tonumber(ARGV[2]))
		return 'daily'
	end
elseif tonumber(daily) > 0 then
	redis.call('DECR', KEYS[1])
	return 'daily'
end
local boost = redis.call('GET', KEYS[2])
if boost ~= false and tonumber(boost) > 0 then
	redis.call('DECR', KEYS[2])
	return 'boost'
end
return 'none'
`)

// ConsumeOne atomically charges one credit, preferring the daily pool per
// the snapshot's limit. The decrement-if-positive script closes the gap in
// the check-then-act sequence: concurrent consumers can over-admit past the
// snapshot check, but stored counters never go below zero.
func (l *RedisLedger) ConsumeOne(ctx context.Context, userID uuid.UUID, info *RemainingInfo) (Bucket, error) {
	now := l.now().UTC()
	ttl := endOfDayUTC(now).Sub(now)

	res, err := consumeScript.Run(ctx, l.client,
		[]string{dailyKey(userID, now), boostKey(userID)},
		info.DailyLimit, ttl.Milliseconds(),
	).Text()
	if err != nil {
		l.logger.Error("ledger consume failed", zap.Error(err), zap.String("user_id", userID.String()))
		return BucketNone, apperrors.StoreUnavailable(err)
	}

	bucket := Bucket(res)
	if bucket == BucketNone {
		return BucketNone, ErrNoCredits
	}
	return bucket, nil
}

// GrantBoostPack adds purchased credits and refreshes the pack's expiry.
func (l *RedisLedger) GrantBoostPack(ctx context.Context, userID uuid.UUID, credits int) error {
	if credits <= 0 {
		return fmt.Errorf("invalid boost pack credit amount: %d", credits)
	}

	pipe := l.client.TxPipeline()
	pipe.IncrBy(ctx, boostKey(userID), int64(credits))
	pipe.Expire(ctx, boostKey(userID), l.limits.BoostPackTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	l.logger.Info("boost pack granted",
		zap.String("user_id", userID.String()),
		zap.Int("credits", credits),
	)
	return nil
}

// GrantMembership marks the user as a member until the given time.
func (l *RedisLedger) GrantMembership(ctx context.Context, userID uuid.UUID, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return fmt.Errorf("membership expiry %s is in the past", until)
	}

	if err := l.client.Set(ctx, memberKey(userID), until.UnixMilli(), ttl).Err(); err != nil {
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

// Compile-time checks
var (
	_ Ledger  = (*RedisLedger)(nil)
	_ Granter = (*RedisLedger)(nil)
)
