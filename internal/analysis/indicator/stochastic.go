package indicator

import (
	"math"
	"time"
)

// StochasticOption은 스토캐스틱 옵션입니다
type StochasticOption struct {
	KPeriod int // %K 기간
	DPeriod int // %D 평활 기간
}

// StochasticResult는 스토캐스틱 계산 결과입니다
type StochasticResult struct {
	K         float64
	D         float64
	Timestamp time.Time
}

// Stochastic은 %K와 %D를 계산합니다. 고가와 저가가 같으면 %K는 50입니다
func Stochastic(prices []PriceData, opt StochasticOption) ([]StochasticResult, error) {
	if err := validatePeriod("KPeriod", opt.KPeriod); err != nil {
		return nil, err
	}
	if err := validatePeriod("DPeriod", opt.DPeriod); err != nil {
		return nil, err
	}
	if err := requireLength("Stochastic", len(prices), opt.KPeriod+opt.DPeriod-1); err != nil {
		return nil, err
	}

	k := nanSlice(len(prices))
	for i := opt.KPeriod - 1; i < len(prices); i++ {
		highest, lowest := math.Inf(-1), math.Inf(1)
		for _, p := range prices[i-opt.KPeriod+1 : i+1] {
			highest = math.Max(highest, p.High)
			lowest = math.Min(lowest, p.Low)
		}

		if highest == lowest {
			k[i] = 50
			continue
		}
		v := (prices[i].Close - lowest) / (highest - lowest) * 100
		// 종가가 고저 범위를 벗어난 잘못된 봉에도 [0, 100]을 유지
		k[i] = math.Min(100, math.Max(0, v))
	}

	d := smaValues(k, opt.DPeriod)

	results := make([]StochasticResult, len(prices))
	for i := range prices {
		results[i] = StochasticResult{K: k[i], D: d[i], Timestamp: prices[i].Time}
	}
	return results, nil
}
