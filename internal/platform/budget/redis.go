package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker shares quotas between processes. Each window gets its own key,
// so rollover needs no explicit reset.
type RedisTracker struct {
	client *redis.Client
	limits map[string]Limit
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

var reserveScript = redis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
local n = tonumber(ARGV[1])
local quota = tonumber(ARGV[2])
if used + n > quota then
  return {0, used}
end
used = redis.call("INCRBY", KEYS[1], n)
if used == n then
  redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return {1, used}
`)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisClient(o RedisOptions) (*redis.Client, error) {
	if o.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	}), nil
}

func NewRedisTracker(client *redis.Client, prefix string, limits []Limit, now func() time.Time, logger *slog.Logger) *RedisTracker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "budget"
	}
	m := make(map[string]Limit, len(limits))
	for _, l := range limits {
		m[l.Source] = l
	}
	return &RedisTracker{client: client, limits: m, prefix: prefix, now: now, logger: logger}
}

func (r *RedisTracker) key(l Limit, t time.Time) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, l.Source, l.Window.Key(t))
}

// TryReserve fails closed: a Redis error counts as an exhausted budget so the
// caller takes its fallback path.
func (r *RedisTracker) TryReserve(ctx context.Context, source string, count int) bool {
	if count <= 0 {
		count = 1
	}
	l, ok := r.limits[source]
	if !ok {
		r.logger.WarnContext(ctx, "budget: unknown source", slog.String("source", source))
		return false
	}

	now := r.now()
	// keep the key a little past the window end so late snapshots still read it
	ttl := l.Window.End(now).Sub(now) + time.Hour

	res, err := reserveScript.Run(ctx, r.client, []string{r.key(l, now)}, count, l.Quota, ttl.Milliseconds()).Result()
	if err != nil {
		r.logger.ErrorContext(ctx, "budget: redis reserve failed", slog.String("source", source), slog.Any("err", err))
		return false
	}

	values, ok := res.([]any)
	if !ok || len(values) < 2 {
		r.logger.ErrorContext(ctx, "budget: unexpected redis reply", slog.String("source", source))
		return false
	}
	admitted, _ := values[0].(int64)
	if admitted != 1 {
		r.logger.WarnContext(ctx, "budget exhausted", slog.String("source", source), slog.Int("quota", l.Quota))
		return false
	}
	return true
}

func (r *RedisTracker) Snapshot(ctx context.Context) []Usage {
	now := r.now()
	out := make([]Usage, 0, len(r.limits))
	for _, l := range r.limits {
		used, err := r.client.Get(ctx, r.key(l, now)).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.logger.ErrorContext(ctx, "budget: redis snapshot failed", slog.String("source", l.Source), slog.Any("err", err))
		}
		out = append(out, Usage{
			Source:      l.Source,
			Window:      l.Window.String(),
			WindowStart: l.Window.Start(now),
			Quota:       l.Quota,
			Used:        used,
			Remaining:   remaining(l.Quota, used),
			PerMinute:   l.PerMinute,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func (r *RedisTracker) Close() error { return r.client.Close() }
