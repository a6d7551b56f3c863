package signal

import (
	"github.com/shopspring/decimal"

	"github.com/assist-by/conduit/internal/analysis/indicator"
	"github.com/assist-by/conduit/internal/domain"
)

const (
	levelPrecision   = 5
	maxLevelDistance = 3.0 // ATR 배수, 이 거리 안의 지지/저항만 손절 기준으로 사용
	levelBuffer      = 0.5 // 지지/저항 너머 여유폭 (ATR 배수)
	fallbackStop     = 2.0 // 지지/저항이 없을 때 손절 거리 (ATR 배수)
	targetRatio      = 2.0 // 기본 목표 손익비
)

// Levels는 진입/손절/익절 가격과 손익비입니다
type Levels struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
}

// ComputeLevels는 방향, 현재가, ATR, 지지/저항으로 주문 가격을 계산합니다
func ComputeLevels(direction domain.OrderSide, price, atr float64, sr indicator.Levels) Levels {
	var stop, target float64

	if direction == domain.Buy {
		support, ok := sr.NearestSupportBelow(price)
		if ok && price-support <= maxLevelDistance*atr {
			stop = support - levelBuffer*atr
		} else {
			stop = price - fallbackStop*atr
		}

		target = price + targetRatio*(price-stop)
		if resistance, ok := sr.NearestResistanceAbove(price); ok && resistance < target {
			target = resistance - levelBuffer*atr
		}
	} else {
		resistance, ok := sr.NearestResistanceAbove(price)
		if ok && resistance-price <= maxLevelDistance*atr {
			stop = resistance + levelBuffer*atr
		} else {
			stop = price + fallbackStop*atr
		}

		target = price - targetRatio*(stop-price)
		if support, ok := sr.NearestSupportBelow(price); ok && support > target {
			target = support + levelBuffer*atr
		}
	}

	lv := Levels{
		Entry:      round(price),
		StopLoss:   round(stop),
		TakeProfit: round(target),
	}
	lv.RiskReward = riskReward(direction, lv)
	return lv
}

func riskReward(direction domain.OrderSide, lv Levels) float64 {
	entry := decimal.NewFromFloat(lv.Entry)
	stop := decimal.NewFromFloat(lv.StopLoss)
	target := decimal.NewFromFloat(lv.TakeProfit)

	risk, reward := entry.Sub(stop), target.Sub(entry)
	if direction == domain.Sell {
		risk, reward = stop.Sub(entry), entry.Sub(target)
	}
	if !risk.IsPositive() {
		return 0
	}
	return reward.DivRound(risk, levelPrecision).InexactFloat64()
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(levelPrecision).InexactFloat64()
}
