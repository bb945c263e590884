package budget

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type budget struct {
	mu          sync.Mutex
	limit       Limit
	used        int
	windowStart time.Time
	burst       *rate.Limiter
	throttled   int
}

// Tracker is the in-process budget store. The set of sources is fixed at
// construction; each source has its own lock.
type Tracker struct {
	budgets map[string]*budget
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func NewTracker(limits []Limit, opts ...Option) *Tracker {
	t := &Tracker{
		budgets: make(map[string]*budget, len(limits)),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	now := t.now()
	for _, l := range limits {
		b := &budget{limit: l, windowStart: l.Window.Start(now)}
		if l.PerMinute > 0 {
			b.burst = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.PerMinute)), l.PerMinute)
		}
		t.budgets[l.Source] = b
	}
	return t
}

// TryReserve admits count calls against source when they fit in the current
// window's quota. A rejected reservation leaves the counter untouched.
func (t *Tracker) TryReserve(ctx context.Context, source string, count int) bool {
	if count <= 0 {
		count = 1
	}

	b, ok := t.budgets[source]
	if !ok {
		t.logger.WarnContext(ctx, "budget: unknown source", slog.String("source", source))
		return false
	}

	now := t.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if start := b.limit.Window.Start(now); start.After(b.windowStart) {
		b.used = 0
		b.windowStart = start
	}

	if b.used+count > b.limit.Quota {
		t.logger.WarnContext(ctx, "budget exhausted",
			slog.String("source", source),
			slog.Int("used", b.used),
			slog.Int("quota", b.limit.Quota),
		)
		return false
	}
	b.used += count

	if b.burst != nil && !b.burst.AllowN(now, count) {
		b.throttled += count
		t.logger.WarnContext(ctx, "budget: per-minute rate exceeded, admitting anyway",
			slog.String("source", source),
			slog.Int("per_minute", b.limit.PerMinute),
		)
	}

	return true
}

// Snapshot reports every budget, sorted by source.
func (t *Tracker) Snapshot(_ context.Context) []Usage {
	now := t.now()
	out := make([]Usage, 0, len(t.budgets))
	for _, b := range t.budgets {
		b.mu.Lock()
		used, start := b.used, b.windowStart
		if s := b.limit.Window.Start(now); s.After(start) {
			used, start = 0, s
		}
		out = append(out, Usage{
			Source:      b.limit.Source,
			Window:      b.limit.Window.String(),
			WindowStart: start,
			Quota:       b.limit.Quota,
			Used:        used,
			Remaining:   remaining(b.limit.Quota, used),
			PerMinute:   b.limit.PerMinute,
			Throttled:   b.throttled,
		})
		b.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
