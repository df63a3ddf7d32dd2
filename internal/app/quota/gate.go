package quota

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"printforge/internal/app/model"
)

// Decision is the outcome of a quota check or admission attempt.
type Decision struct {
	Allowed           bool              `json:"allowed"`
	Reason            string            `json:"reason,omitempty"`
	RetryAfterSeconds int               `json:"retry_after_seconds,omitempty"`
	Usage             model.UsageRecord `json:"usage"`
}

// Gate is the admission control over per-user usage counters. Counters live
// in Redis so every worker process shares one authoritative count; admission
// itself runs as a single Lua script so concurrent attempts from the same
// user can never overshoot the limit.
type Gate struct {
	rdb    *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewGate creates a quota gate over the given Redis client.
func NewGate(rdb *redis.Client, logger *slog.Logger) *Gate {
	return &Gate{rdb: rdb, logger: logger, now: time.Now}
}

// NewRedisClient builds a client from REDIS_ADDR and REDIS_PASSWORD.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func (g *Gate) dailyKey(userID string) string {
	return fmt.Sprintf("quota:%s:daily:%s", userID, g.now().UTC().Format("20060102"))
}

func (g *Gate) monthlyKey(userID string) string {
	return fmt.Sprintf("quota:%s:monthly:%s", userID, g.now().UTC().Format("200601"))
}

func (g *Gate) costKey(userID string) string {
	return fmt.Sprintf("quota:%s:cost:%s", userID, g.now().UTC().Format("200601"))
}

func (g *Gate) tierKey(userID string) string {
	return fmt.Sprintf("quota:%s:tier", userID)
}

// admitScript increments the daily and monthly counters only when both stay
// within their limits, rolling back on overshoot so the final counter equals
// the limit no matter how many attempts race. Admission is also refused once
// the accumulated monthly cost has reached the tier's cap. A limit of 0 means
// unlimited.
var admitScript = redis.NewScript(`
local dailyLimit = tonumber(ARGV[1])
local monthlyLimit = tonumber(ARGV[2])
local cost = ARGV[3]
local dailyTTL = tonumber(ARGV[4])
local monthlyTTL = tonumber(ARGV[5])
local costLimit = tonumber(ARGV[6])

local daily = redis.call('INCR', KEYS[1])
if daily == 1 then redis.call('EXPIRE', KEYS[1], dailyTTL) end
if dailyLimit > 0 and daily > dailyLimit then
	redis.call('DECR', KEYS[1])
	return {0, 'daily_limit_exceeded'}
end

local monthly = redis.call('INCR', KEYS[2])
if monthly == 1 then redis.call('EXPIRE', KEYS[2], monthlyTTL) end
if monthlyLimit > 0 and monthly > monthlyLimit then
	redis.call('DECR', KEYS[1])
	redis.call('DECR', KEYS[2])
	return {0, 'monthly_limit_exceeded'}
end

if costLimit > 0 then
	local spent = tonumber(redis.call('GET', KEYS[3]) or '0')
	if spent >= costLimit then
		redis.call('DECR', KEYS[1])
		redis.call('DECR', KEYS[2])
		return {0, 'cost_limit_exceeded'}
	end
end

redis.call('INCRBYFLOAT', KEYS[3], cost)
redis.call('EXPIRE', KEYS[3], monthlyTTL)
return {1, daily, monthly}
`)

// Tier returns the user's subscription tier, defaulting to free.
func (g *Gate) Tier(ctx context.Context, userID string) (model.SubscriptionTier, error) {
	val, err := g.rdb.Get(ctx, g.tierKey(userID)).Result()
	if err == redis.Nil {
		return model.TierFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read tier: %w", err)
	}
	tier := model.SubscriptionTier(val)
	if !tier.Valid() {
		g.logger.Warn("unknown tier stored, treating as free", "user_id", userID, "tier", val)
		return model.TierFree, nil
	}
	return tier, nil
}

// Usage returns the user's current counters and limits. Pure read.
func (g *Gate) Usage(ctx context.Context, userID string) (*model.UsageRecord, error) {
	tier, err := g.Tier(ctx, userID)
	if err != nil {
		return nil, err
	}

	vals, err := g.rdb.MGet(ctx, g.dailyKey(userID), g.monthlyKey(userID), g.costKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage counters: %w", err)
	}

	rec := &model.UsageRecord{
		UserID: userID,
		Tier:   tier,
		Limits: model.LimitsFor(tier),
	}
	rec.DailyCount = parseIntValue(vals[0])
	rec.MonthlyCount = parseIntValue(vals[1])
	rec.TotalCostUSD = parseFloatValue(vals[2])
	return rec, nil
}

// CanProceed checks the counters against the tier limits without consuming
// quota. The admission itself happens in RecordAttempt; this is the cheap
// read used to reject obviously over-limit requests early.
func (g *Gate) CanProceed(ctx context.Context, userID string) (*Decision, error) {
	usage, err := g.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Decision{Allowed: true, Usage: *usage}
	limits := usage.Limits
	switch {
	case limits.DailyConversions > 0 && usage.DailyCount >= limits.DailyConversions:
		d.Allowed = false
		d.Reason = "daily_limit_exceeded"
		d.RetryAfterSeconds = g.secondsUntilTomorrow()
	case limits.MonthlyConversions > 0 && usage.MonthlyCount >= limits.MonthlyConversions:
		d.Allowed = false
		d.Reason = "monthly_limit_exceeded"
		d.RetryAfterSeconds = g.secondsUntilNextMonth()
	case limits.MonthlyCostUSD > 0 && usage.TotalCostUSD >= limits.MonthlyCostUSD:
		d.Allowed = false
		d.Reason = "cost_limit_exceeded"
		d.RetryAfterSeconds = g.secondsUntilNextMonth()
	}
	return d, nil
}

// RecordAttempt atomically consumes one unit of quota for the given job.
// Under N concurrent attempts with N beyond the limit, exactly limit calls
// are admitted and the stored counter ends at the limit.
func (g *Gate) RecordAttempt(ctx context.Context, userID, jobID string, costUSD float64) (*Decision, error) {
	tier, err := g.Tier(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := model.LimitsFor(tier)

	res, err := admitScript.Run(ctx, g.rdb,
		[]string{g.dailyKey(userID), g.monthlyKey(userID), g.costKey(userID)},
		limits.DailyConversions,
		limits.MonthlyConversions,
		strconv.FormatFloat(costUSD, 'f', -1, 64),
		48*3600,
		35*24*3600,
		strconv.FormatFloat(limits.MonthlyCostUSD, 'f', -1, 64),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("quota admission script failed: %w", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) < 2 {
		return nil, fmt.Errorf("unexpected quota script reply: %v", res)
	}

	d := &Decision{Usage: model.UsageRecord{UserID: userID, Tier: tier, Limits: limits}}
	if asInt(reply[0]) == 1 {
		d.Allowed = true
		d.Usage.DailyCount = asInt(reply[1])
		if len(reply) > 2 {
			d.Usage.MonthlyCount = asInt(reply[2])
		}
		g.logger.Debug("quota admitted", "user_id", userID, "job_id", jobID,
			"daily", d.Usage.DailyCount, "monthly", d.Usage.MonthlyCount)
		return d, nil
	}

	d.Allowed = false
	d.Reason = fmt.Sprintf("%v", reply[1])
	if d.Reason == "daily_limit_exceeded" {
		d.RetryAfterSeconds = g.secondsUntilTomorrow()
	} else {
		d.RetryAfterSeconds = g.secondsUntilNextMonth()
	}
	g.logger.Info("quota denied", "user_id", userID, "job_id", jobID, "reason", d.Reason)
	return d, nil
}

// UpgradeTier sets the user's subscription tier. Administrative path.
func (g *Gate) UpgradeTier(ctx context.Context, userID string, tier model.SubscriptionTier) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", tier)
	}
	if err := g.rdb.Set(ctx, g.tierKey(userID), string(tier), 0).Err(); err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	return nil
}

// ResetLimits clears the user's counters. Administrative path.
func (g *Gate) ResetLimits(ctx context.Context, userID string) error {
	err := g.rdb.Del(ctx, g.dailyKey(userID), g.monthlyKey(userID), g.costKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}
	return nil
}

func (g *Gate) secondsUntilTomorrow() int {
	now := g.now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return int(tomorrow.Sub(now).Seconds())
}

func (g *Gate) secondsUntilNextMonth() int {
	now := g.now().UTC()
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return int(next.Sub(now).Seconds())
}

func parseIntValue(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloatValue(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
