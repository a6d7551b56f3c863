package indicator

import (
	"fmt"
	"math"
	"time"
)

// ID는 지표 식별자입니다
type ID int

const (
	IDRSI ID = iota
	IDMACD
	IDBollinger
	IDStochastic
	IDATR
	IDMovingAverages
	IDSupportResistance
)

func (id ID) String() string {
	switch id {
	case IDRSI:
		return "RSI"
	case IDMACD:
		return "MACD"
	case IDBollinger:
		return "Bollinger"
	case IDStochastic:
		return "Stochastic"
	case IDATR:
		return "ATR"
	case IDMovingAverages:
		return "MovingAverages"
	case IDSupportResistance:
		return "SupportResistance"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// Reading은 마지막 봉 기준 지표값입니다. Valid가 false면 값이 없습니다
type Reading struct {
	Value float64
	Valid bool
}

func reading(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Reading{Value: v, Valid: true}
}

type MACDReading struct {
	Line      Reading
	Signal    Reading
	Histogram Reading
}

type BollingerReading struct {
	Upper  Reading
	Middle Reading
	Lower  Reading
}

type StochasticReading struct {
	K Reading
	D Reading
}

type MovingAverages struct {
	SMA20 Reading
	SMA50 Reading
	EMA20 Reading
}

// Set은 한 시점의 지표 묶음입니다
type Set struct {
	Price          float64
	Timestamp      time.Time
	RSI            Reading
	MACD           MACDReading
	Bollinger      BollingerReading
	Stochastic     StochasticReading
	ATR            Reading
	MovingAverages MovingAverages
	Levels         Levels
}

// SetOption은 지표 묶음 계산 옵션입니다
type SetOption struct {
	MinBars    int
	RSI        RSIOption
	MACD       MACDOption
	Bollinger  BollingerOption
	Stochastic StochasticOption
	ATR        ATROption
	Levels     LevelOption
}

// DefaultSetOption은 기본 지표 설정을 반환합니다
func DefaultSetOption() SetOption {
	return SetOption{
		MinBars:    50,
		RSI:        RSIOption{Period: 14},
		MACD:       MACDOption{ShortPeriod: 12, LongPeriod: 26, SignalPeriod: 9},
		Bollinger:  BollingerOption{Period: 20, K: 2},
		Stochastic: StochasticOption{KPeriod: 14, DPeriod: 3},
		ATR:        ATROption{Period: 14},
		Levels:     LevelOption{Window: 20, MinTouches: 2},
	}
}

// Calculate는 마지막 봉 기준으로 모든 지표를 계산합니다
func Calculate(prices []PriceData, opt SetOption) (*Set, error) {
	if err := requireLength("지표 묶음", len(prices), opt.MinBars); err != nil {
		return nil, err
	}

	last := len(prices) - 1
	set := &Set{Price: prices[last].Close, Timestamp: prices[last].Time}

	rsi, err := RSI(prices, opt.RSI)
	if err != nil {
		return nil, fmt.Errorf("RSI 계산 실패: %w", err)
	}
	set.RSI = reading(rsi[last].Value)

	macd, err := MACD(prices, opt.MACD)
	if err != nil {
		return nil, fmt.Errorf("MACD 계산 실패: %w", err)
	}
	set.MACD = MACDReading{
		Line:      reading(macd[last].MACD),
		Signal:    reading(macd[last].Signal),
		Histogram: reading(macd[last].Histogram),
	}

	bb, err := Bollinger(prices, opt.Bollinger)
	if err != nil {
		return nil, fmt.Errorf("볼린저 밴드 계산 실패: %w", err)
	}
	set.Bollinger = BollingerReading{
		Upper:  reading(bb[last].Upper),
		Middle: reading(bb[last].Middle),
		Lower:  reading(bb[last].Lower),
	}

	stoch, err := Stochastic(prices, opt.Stochastic)
	if err != nil {
		return nil, fmt.Errorf("스토캐스틱 계산 실패: %w", err)
	}
	set.Stochastic = StochasticReading{K: reading(stoch[last].K), D: reading(stoch[last].D)}

	atr, err := ATR(prices, opt.ATR)
	if err != nil {
		return nil, fmt.Errorf("ATR 계산 실패: %w", err)
	}
	set.ATR = reading(atr[last].Value)

	xs := closes(prices)
	set.MovingAverages = MovingAverages{
		SMA20: lastReading(smaValues(xs, 20)),
		SMA50: lastReading(smaValues(xs, 50)),
		EMA20: lastReading(emaValues(xs, 20)),
	}

	levels, err := SupportResistance(prices, opt.Levels)
	if err != nil {
		return nil, fmt.Errorf("지지/저항 계산 실패: %w", err)
	}
	set.Levels = levels

	return set, nil
}

func lastReading(values []float64) Reading {
	if len(values) == 0 {
		return Reading{}
	}
	return reading(values[len(values)-1])
}
