package domain

import "time"

// TradingSignal은 분석 파이프라인이 만든 매매 시그널입니다. 생성 후 변경하지 않습니다
type TradingSignal struct {
	Symbol     string
	Direction  OrderSide
	Strength   SignalStrength
	Confidence float64 // [0, 1]
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
	Timeframe  TimeInterval
	Reasons    []string
	Warnings   []string
	CreatedAt  time.Time
}
