package domain

import (
	"fmt"
	"time"
)

// Candle은 캔들(OHLCV) 데이터를 표현합니다
type Candle struct {
	OpenTime  time.Time    // 캔들 시작 시간
	CloseTime time.Time    // 캔들 종료 시간
	Open      float64      // 시가
	High      float64      // 고가
	Low       float64      // 저가
	Close     float64      // 종가
	Volume    float64      // 거래량
	Symbol    string       // 심볼 (예: BTCUSDT)
	Interval  TimeInterval // 시간 간격 (예: 15m, 1h)
}

// Validate는 low <= open, close <= high 조건을 확인합니다
func (c Candle) Validate() error {
	if c.Low > c.High {
		return fmt.Errorf("저가(%f)가 고가(%f)보다 큽니다", c.Low, c.High)
	}
	for _, v := range []float64{c.Open, c.Close} {
		if v < c.Low || v > c.High {
			return fmt.Errorf("시가/종가(%f)가 [%f, %f] 범위를 벗어났습니다", v, c.Low, c.High)
		}
	}
	return nil
}

// CandleList는 시간 오름차순으로 정렬된 캔들 목록입니다
type CandleList []Candle

// Validate는 각 캔들과 정렬/중복 조건을 검증합니다
func (cl CandleList) Validate() error {
	for i, c := range cl {
		if err := c.Validate(); err != nil {
			return &ValidationError{Field: fmt.Sprintf("candles[%d]", i), Err: err}
		}
		if i > 0 && !c.OpenTime.After(cl[i-1].OpenTime) {
			return &ValidationError{
				Field: fmt.Sprintf("candles[%d]", i),
				Err:   fmt.Errorf("시간 순서가 아니거나 중복된 캔들입니다: %s", c.OpenTime.Format(time.RFC3339)),
			}
		}
	}
	return nil
}

// GetLastCandle은 가장 최근 캔들을 반환합니다
func (cl CandleList) GetLastCandle() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}
