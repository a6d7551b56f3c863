package indicator

import "math"

// SMAOption은 SMA 계산에 필요한 옵션을 정의합니다
type SMAOption struct {
	Period int // 기간
}

// EMAOption은 EMA 계산에 필요한 옵션을 정의합니다
type EMAOption struct {
	Period int // 기간
}

// SMA는 단순이동평균을 계산합니다
func SMA(prices []PriceData, opt SMAOption) ([]Result, error) {
	if err := validatePeriod("Period", opt.Period); err != nil {
		return nil, err
	}
	if err := requireLength("SMA", len(prices), opt.Period); err != nil {
		return nil, err
	}

	return toResults(smaValues(closes(prices), opt.Period), prices), nil
}

// EMA는 지수이동평균을 계산합니다
func EMA(prices []PriceData, opt EMAOption) ([]Result, error) {
	if err := validatePeriod("Period", opt.Period); err != nil {
		return nil, err
	}
	if err := requireLength("EMA", len(prices), opt.Period); err != nil {
		return nil, err
	}

	return toResults(emaValues(closes(prices), opt.Period), prices), nil
}

// smaValues는 NaN이 아닌 구간부터 이동평균을 계산합니다
func smaValues(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	start := firstValid(xs)
	if start < 0 {
		return out
	}

	var sum float64
	for i := start; i < len(xs); i++ {
		sum += xs[i]
		if i-start >= period {
			sum -= xs[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// emaValues는 첫 period개의 SMA를 시작값으로 EMA를 계산합니다
func emaValues(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	start := firstValid(xs)
	if start < 0 || len(xs)-start < period {
		return out
	}

	// EMA = 승수 × 현재값 + (1 - 승수) × 이전 EMA
	alpha := 2.0 / float64(period+1)
	seedIdx := start + period - 1
	out[seedIdx] = mean(xs[start : seedIdx+1])
	for i := seedIdx + 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

func firstValid(xs []float64) int {
	for i, x := range xs {
		if !math.IsNaN(x) {
			return i
		}
	}
	return -1
}
