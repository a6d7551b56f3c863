package binance

import (
	"errors"
	"time"
)

// RetryConfig는 재시도 설정을 정의합니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// DefaultRetryConfig는 기본 재시도 설정입니다
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   5 * time.Second,
	Factor:     2,
}

// next는 다음 대기 시간을 계산합니다
func (r RetryConfig) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * r.Factor)
	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// transientError는 재시도 가능한 실패(네트워크 오류, 5xx, 요청 한도 초과)를 표시합니다
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// IsRetryableError는 재시도 가능한 에러인지 확인합니다
func IsRetryableError(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
