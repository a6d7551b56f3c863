package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// BollingerOption은 볼린저 밴드 옵션입니다
type BollingerOption struct {
	Period int     // 기간
	K      float64 // 표준편차 배수
}

// BollingerResult는 볼린저 밴드 계산 결과입니다
type BollingerResult struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Timestamp time.Time
}

// Bollinger는 SMA와 모표준편차로 볼린저 밴드를 계산합니다
func Bollinger(prices []PriceData, opt BollingerOption) ([]BollingerResult, error) {
	if err := validatePeriod("Period", opt.Period); err != nil {
		return nil, err
	}
	if opt.K < 0 || math.IsNaN(opt.K) {
		return nil, &domain.ValidationError{Field: "K", Err: fmt.Errorf("배수는 0 이상이어야 합니다: %v", opt.K)}
	}
	if err := requireLength("Bollinger", len(prices), opt.Period); err != nil {
		return nil, err
	}

	xs := closes(prices)
	results := make([]BollingerResult, len(xs))
	for i := range xs {
		results[i] = BollingerResult{Upper: math.NaN(), Middle: math.NaN(), Lower: math.NaN(), Timestamp: prices[i].Time}
		if i < opt.Period-1 {
			continue
		}

		window := xs[i-opt.Period+1 : i+1]
		middle := mean(window)
		band := opt.K * stddev(window)
		results[i].Upper = middle + band
		results[i].Middle = middle
		results[i].Lower = middle - band
	}
	return results, nil
}

// ATROption은 ATR 옵션입니다
type ATROption struct {
	Period int
}

// ATR은 True Range의 단순 평균을 계산합니다. period+1개의 데이터가 필요합니다
func ATR(prices []PriceData, opt ATROption) ([]Result, error) {
	if err := validatePeriod("Period", opt.Period); err != nil {
		return nil, err
	}
	if err := requireLength("ATR", len(prices), opt.Period+1); err != nil {
		return nil, err
	}

	// 첫 봉은 이전 종가가 없어 TR이 정의되지 않음
	tr := nanSlice(len(prices))
	for i := 1; i < len(prices); i++ {
		prevClose := prices[i-1].Close
		tr[i] = math.Max(prices[i].High-prices[i].Low,
			math.Max(math.Abs(prices[i].High-prevClose), math.Abs(prices[i].Low-prevClose)))
	}

	values := nanSlice(len(prices))
	for i := opt.Period; i < len(prices); i++ {
		values[i] = mean(tr[i-opt.Period+1 : i+1])
	}
	return toResults(values, prices), nil
}
