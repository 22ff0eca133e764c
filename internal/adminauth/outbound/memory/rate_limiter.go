package memory

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

type RateLimiterConfig struct {
	Window      time.Duration
	MaxRequests int
}

// RateLimiter admits at most MaxRequests per identity per fixed Window.
type RateLimiter struct {
	items *shardedMap[entity.RateLimitWindow]
	cfg   RateLimiterConfig
	clock clock.Clocker
}

func NewRateLimiter(cfg RateLimiterConfig, clk clock.Clocker) *RateLimiter {
	return &RateLimiter{
		items: newShardedMap[entity.RateLimitWindow](),
		cfg:   cfg,
		clock: clk,
	}
}

// Admit counts one request for identity, starting a new window when the
// previous one has elapsed.
func (l *RateLimiter) Admit(_ context.Context, identity string) entity.Admission {
	var adm entity.Admission
	now := l.clock.Now()

	l.items.compute(identity, func(w entity.RateLimitWindow, ok bool) (entity.RateLimitWindow, bool) {
		if !ok || l.elapsed(w, now) {
			w = entity.RateLimitWindow{Identity: identity, WindowStart: now}
		}

		if w.Count >= l.cfg.MaxRequests {
			adm = entity.Admission{
				RetryAfter:  w.WindowStart.Add(l.cfg.Window).Sub(now),
				WindowStart: w.WindowStart,
			}
			return w, true
		}

		w.Count++
		adm = entity.Admission{
			Allowed:     true,
			WindowStart: w.WindowStart,
			Remaining:   l.cfg.MaxRequests - w.Count,
		}
		return w, true
	})

	return adm
}

// Refund gives back the slot taken by adm, provided its window is still current.
func (l *RateLimiter) Refund(_ context.Context, identity string, adm entity.Admission) {
	if !adm.Allowed {
		return
	}

	l.items.compute(identity, func(w entity.RateLimitWindow, ok bool) (entity.RateLimitWindow, bool) {
		if ok && w.WindowStart.Equal(adm.WindowStart) && w.Count > 0 {
			w.Count--
		}
		return w, ok
	})
}

// Sweep drops windows that have elapsed.
func (l *RateLimiter) Sweep(_ context.Context) int {
	now := l.clock.Now()
	return l.items.sweep(func(w entity.RateLimitWindow) bool {
		return l.elapsed(w, now)
	})
}

func (l *RateLimiter) Len() int {
	return l.items.len()
}

func (l *RateLimiter) elapsed(w entity.RateLimitWindow, now time.Time) bool {
	return !now.Before(w.WindowStart.Add(l.cfg.Window))
}
