package indicator

// RSIOption은 RSI 계산에 필요한 옵션을 정의합니다
type RSIOption struct {
	Period int // 기간
}

// RSI는 Wilder 방식의 RSI를 계산합니다. period+1개의 데이터가 필요합니다
func RSI(prices []PriceData, opt RSIOption) ([]Result, error) {
	if err := validatePeriod("Period", opt.Period); err != nil {
		return nil, err
	}
	if err := requireLength("RSI", len(prices), opt.Period+1); err != nil {
		return nil, err
	}

	p := opt.Period
	values := nanSlice(len(prices))

	// 첫 p개 변동의 평균
	var sumGain, sumLoss float64
	for i := 1; i <= p; i++ {
		gain, loss := change(prices[i].Close - prices[i-1].Close)
		sumGain += gain
		sumLoss += loss
	}
	avgGain, avgLoss := sumGain/float64(p), sumLoss/float64(p)
	values[p] = toRSI(avgGain, avgLoss)

	// 이후 구간은 Wilder 평활
	for i := p + 1; i < len(prices); i++ {
		gain, loss := change(prices[i].Close - prices[i-1].Close)
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		values[i] = toRSI(avgGain, avgLoss)
	}

	return toResults(values, prices), nil
}

func change(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func toRSI(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50 // 완전 횡보
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}
