package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const staleLimiterAfter = 10 * time.Minute

// Spreader serves handlers and keeps a token bucket per chat so a single
// chat cannot start downloads back to back.
type Spreader struct {
	limiters sync.Map // chat id -> *limiterEntry
	r        rate.Limit
	burst    int
}

type limiterEntry struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSpreader allows perMinute requests per chat; perMinute <= 0 disables limiting.
func NewSpreader(perMinute, burst int) *Spreader {
	if burst <= 0 {
		burst = 1
	}

	r := rate.Limit(0)
	if perMinute > 0 {
		r = rate.Limit(float64(perMinute) / 60.0)
	}

	return &Spreader{r: r, burst: burst}
}

func (s *Spreader) Enabled() bool {
	return s.r > 0
}

func (s *Spreader) Allow(chatID int64) bool {
	return s.allowAt(chatID, time.Now())
}

func (s *Spreader) allowAt(chatID int64, now time.Time) bool {
	if !s.Enabled() {
		return true
	}

	entry := s.getOrCreate(chatID, now)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (s *Spreader) getOrCreate(chatID int64, now time.Time) *limiterEntry {
	if v, ok := s.limiters.Load(chatID); ok {
		return v.(*limiterEntry)
	}

	entry := &limiterEntry{
		limiter:  rate.NewLimiter(s.r, s.burst),
		lastSeen: now,
	}
	actual, _ := s.limiters.LoadOrStore(chatID, entry)
	return actual.(*limiterEntry)
}

// Cleanup drops limiters of chats that were quiet for a while.
func (s *Spreader) Cleanup() int {
	return s.cleanupAt(time.Now())
}

func (s *Spreader) cleanupAt(now time.Time) int {
	cutoff := now.Add(-staleLimiterAfter)

	var removed int
	s.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*limiterEntry)

		entry.mu.Lock()
		stale := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// ServeHandler runs handler and passes any error to cleaner.
func (s *Spreader) ServeHandler(ctx context.Context, handler model.Handler, situation *model.Situation, cleaner func(err error)) {
	if err := handler(ctx, situation); err != nil {
		cleaner(err)
	}
}
