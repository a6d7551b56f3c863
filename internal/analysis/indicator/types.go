package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// PriceData는 지표 계산에 필요한 가격 정보를 정의합니다
type PriceData struct {
	Time   time.Time // 타임스탬프
	Open   float64   // 시가
	High   float64   // 고가
	Low    float64   // 저가
	Close  float64   // 종가
	Volume float64   // 거래량
}

// Result는 지표 계산 결과를 정의합니다. 계산 불가 구간의 Value는 NaN입니다
type Result struct {
	Value     float64   // 지표값
	Timestamp time.Time // 계산 시점
}

// Valid는 값이 정의된 구간인지 반환합니다
func (r Result) Valid() bool {
	return !math.IsNaN(r.Value)
}

// FromCandles는 캔들 데이터를 지표 계산용 PriceData로 변환합니다
func FromCandles(candles domain.CandleList) []PriceData {
	prices := make([]PriceData, len(candles))
	for i, c := range candles {
		prices[i] = PriceData{
			Time:   c.OpenTime,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}
	return prices
}

func closes(prices []PriceData) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

func validatePeriod(field string, period int) error {
	if period < 1 {
		return &domain.ValidationError{
			Field: field,
			Err:   fmt.Errorf("기간은 1 이상이어야 합니다: %d", period),
		}
	}
	return nil
}

// requireLength는 데이터 길이가 부족하면 ErrInsufficientData를 반환합니다
func requireLength(name string, have, need int) error {
	if have < need {
		return fmt.Errorf("%w: %s 계산에 %d개 필요, 현재 %d개", domain.ErrInsufficientData, name, need, have)
	}
	return nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func toResults(values []float64, prices []PriceData) []Result {
	results := make([]Result, len(values))
	for i, v := range values {
		results[i] = Result{Value: v, Timestamp: prices[i].Time}
	}
	return results
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev는 모표준편차를 계산합니다
func stddev(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}
