package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// MACDOption은 MACD 계산에 필요한 옵션을 정의합니다
type MACDOption struct {
	ShortPeriod  int // 단기 EMA 기간
	LongPeriod   int // 장기 EMA 기간
	SignalPeriod int // 시그널 라인 기간
}

// MACDResult는 MACD 계산 결과를 정의합니다
type MACDResult struct {
	MACD      float64   // MACD 라인
	Signal    float64   // 시그널 라인
	Histogram float64   // 히스토그램
	Timestamp time.Time // 계산 시점
}

// Valid는 세 값이 모두 정의된 구간인지 반환합니다
func (r MACDResult) Valid() bool {
	return !math.IsNaN(r.MACD) && !math.IsNaN(r.Signal)
}

// ValidateMACDOption은 MACD 옵션을 검증합니다
func ValidateMACDOption(opt MACDOption) error {
	if opt.ShortPeriod <= 0 {
		return &domain.ValidationError{
			Field: "ShortPeriod",
			Err:   fmt.Errorf("단기 기간은 0보다 커야 합니다: %d", opt.ShortPeriod),
		}
	}
	if opt.LongPeriod <= opt.ShortPeriod {
		return &domain.ValidationError{
			Field: "LongPeriod",
			Err:   fmt.Errorf("장기 기간은 단기 기간보다 커야 합니다: %d <= %d", opt.LongPeriod, opt.ShortPeriod),
		}
	}
	if opt.SignalPeriod <= 0 {
		return &domain.ValidationError{
			Field: "SignalPeriod",
			Err:   fmt.Errorf("시그널 기간은 0보다 커야 합니다: %d", opt.SignalPeriod),
		}
	}
	return nil
}

// MACD는 MACD 라인, 시그널 라인, 히스토그램을 계산합니다.
// 마지막 값까지 정의되려면 LongPeriod+SignalPeriod-1개의 데이터가 필요합니다.
func MACD(prices []PriceData, opt MACDOption) ([]MACDResult, error) {
	if err := ValidateMACDOption(opt); err != nil {
		return nil, err
	}
	if err := requireLength("MACD", len(prices), opt.LongPeriod+opt.SignalPeriod-1); err != nil {
		return nil, err
	}

	xs := closes(prices)
	shortEMA := emaValues(xs, opt.ShortPeriod)
	longEMA := emaValues(xs, opt.LongPeriod)

	// MACD 라인 (단기 EMA - 장기 EMA), 장기 EMA가 정의되기 전은 NaN
	line := make([]float64, len(xs))
	for i := range xs {
		line[i] = shortEMA[i] - longEMA[i]
	}

	signal := emaValues(line, opt.SignalPeriod)

	results := make([]MACDResult, len(xs))
	for i := range xs {
		results[i] = MACDResult{
			MACD:      line[i],
			Signal:    signal[i],
			Histogram: line[i] - signal[i],
			Timestamp: prices[i].Time,
		}
	}
	return results, nil
}
