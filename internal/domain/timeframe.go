package domain

import (
	"fmt"
	"time"
)

// TimeInterval은 캔들 차트의 시간 간격을 정의합니다
type TimeInterval string

const (
	Interval1m  TimeInterval = "1m"
	Interval5m  TimeInterval = "5m"
	Interval15m TimeInterval = "15m"
	Interval30m TimeInterval = "30m"
	Interval1h  TimeInterval = "1h"
	Interval4h  TimeInterval = "4h"
	Interval1d  TimeInterval = "1d"
)

var intervalDurations = map[TimeInterval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// Duration은 간격의 길이를 반환합니다. 지원하지 않는 간격이면 false
func (i TimeInterval) Duration() (time.Duration, bool) {
	d, ok := intervalDurations[i]
	return d, ok
}

// ParseInterval은 문자열을 TimeInterval로 변환합니다
func ParseInterval(s string) (TimeInterval, error) {
	i := TimeInterval(s)
	if _, ok := intervalDurations[i]; !ok {
		return "", fmt.Errorf("지원하지 않는 시간 간격: %s", s)
	}
	return i, nil
}
