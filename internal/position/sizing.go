package position

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RiskSize는 리스크 기반 포지션 수량을 계산합니다
// size = (잔고 × 리스크% / 100) / |진입가 - 손절가|
// 진입가와 손절가가 같거나 입력값이 유효하지 않으면 0을 반환합니다
func RiskSize(balance, riskPercent, entry, stop float64) float64 {
	if balance <= 0 || riskPercent <= 0 || entry <= 0 || stop <= 0 {
		return 0
	}
	distance := math.Abs(entry - stop)
	if distance == 0 {
		return 0
	}
	return balance * riskPercent / 100 / distance
}

// SizingConfig는 포지션 사이즈 계산을 위한 설정을 정의합니다
type SizingConfig struct {
	Balance     float64 // 계정 잔고
	RiskPercent float64 // 거래당 리스크 비율 (%)
	StepSize    float64 // 수량 최소 단위 (0이면 조정하지 않음)
	MinSize     float64 // 최소 주문 수량
	MaxSize     float64 // 최대 주문 수량 (0이면 제한 없음)
	MinNotional float64 // 최소 주문 가치
}

// PositionSizeResult는 포지션 계산 결과를 담는 구조체입니다
type PositionSizeResult struct {
	PositionValue float64 // 포지션 가치 (견적 통화)
	Quantity      float64 // 주문 수량
	RiskAmount    float64 // 손절 시 손실 금액
}

// CalculatePositionSize는 리스크 기반 수량을 거래소 규칙에 맞게 조정합니다
func CalculatePositionSize(entry, stop float64, config SizingConfig) (PositionSizeResult, error) {
	raw := RiskSize(config.Balance, config.RiskPercent, entry, stop)
	if raw == 0 {
		return PositionSizeResult{}, fmt.Errorf("리스크 기반 수량을 계산할 수 없습니다: 진입가 %.8f, 손절가 %.8f", entry, stop)
	}

	// 최대 수량 제한
	if config.MaxSize > 0 && raw > config.MaxSize {
		raw = config.MaxSize
	}

	// 최소 주문 단위로 내림
	quantity := decimal.NewFromFloat(raw)
	if config.StepSize > 0 {
		step := decimal.NewFromFloat(config.StepSize)
		quantity = quantity.Div(step).Floor().Mul(step)
	}

	qty := quantity.InexactFloat64()
	if qty < config.MinSize || qty == 0 {
		return PositionSizeResult{}, fmt.Errorf("계산된 수량(%v)이 최소 수량(%v)보다 작습니다", qty, config.MinSize)
	}

	value := quantity.Mul(decimal.NewFromFloat(entry))
	if value.InexactFloat64() < config.MinNotional {
		return PositionSizeResult{}, fmt.Errorf("계산된 포지션 가치(%.2f)가 최소 주문 가치(%.2f)보다 작습니다",
			value.InexactFloat64(), config.MinNotional)
	}

	risk := quantity.Mul(decimal.NewFromFloat(math.Abs(entry - stop)))

	return PositionSizeResult{
		PositionValue: value.Round(2).InexactFloat64(),
		Quantity:      qty,
		RiskAmount:    risk.Round(2).InexactFloat64(),
	}, nil
}
