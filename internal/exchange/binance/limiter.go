package binance

import (
	"context"
	"sync"
	"time"
)

// RateLimiter는 호출 사이의 최소 간격(1/초당 호출 수)을 보장합니다.
// 다음 호출 가능 시각을 mutex로 보호하므로 여러 고루틴에서 동시에 사용할 수 있습니다.
type RateLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	next     time.Time // 다음 호출이 허용되는 시각
}

// NewRateLimiter는 초당 callsPerSecond회로 제한하는 리미터를 생성합니다
func NewRateLimiter(callsPerSecond float64) *RateLimiter {
	var interval time.Duration
	if callsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / callsPerSecond)
	}
	return &RateLimiter{interval: interval}
}

// reserve는 호출 슬롯을 예약하고 대기해야 할 시간을 반환합니다
func (l *RateLimiter) reserve(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	return slot.Sub(now)
}

// Wait는 호출이 허용될 때까지 대기합니다. 대기했으면 true를 반환합니다
func (l *RateLimiter) Wait(ctx context.Context) (bool, error) {
	if l.interval <= 0 {
		return false, nil
	}

	wait := l.reserve(time.Now())
	if wait <= 0 {
		return false, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-timer.C:
		return true, nil
	}
}
