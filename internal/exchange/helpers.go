package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/conduit/internal/domain"
)

// FindPosition은 심볼에 해당하는 첫 포지션을 찾습니다
func FindPosition(positions []domain.Position, symbol string) (domain.Position, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return domain.Position{}, false
}

// FindOrder는 ID에 해당하는 주문을 찾습니다
func FindOrder(orders []domain.Order, id string) (domain.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// CancelAllOrders는 대기 중인 주문을 모두 취소하고 취소된 개수를 반환합니다.
// 취소를 지원하지 않는 거래소는 ErrUnsupported를 반환합니다.
func CancelAllOrders(ctx context.Context, ex Exchange) (int, error) {
	if !ex.Capabilities().CancelOrder {
		return 0, fmt.Errorf("%s: %w", ex.Name(), domain.ErrUnsupported)
	}

	orders, err := ex.GetOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("주문 목록 조회 실패: %w", err)
	}

	var errs []error
	cancelled := 0
	for _, o := range orders {
		if o.Status != domain.StatusPending && o.Status != domain.StatusPartiallyFilled {
			continue
		}
		if err := ex.CancelOrder(ctx, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("주문 %s 취소 실패: %w", o.ID, err))
			continue
		}
		cancelled++
	}
	return cancelled, errors.Join(errs...)
}

// CloseAllPositions는 모든 포지션을 전량 청산하고 청산된 개수를 반환합니다
func CloseAllPositions(ctx context.Context, ex Exchange) (int, error) {
	positions, err := ex.GetPositions(ctx)
	if err != nil {
		return 0, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var errs []error
	closed := 0
	for _, p := range positions {
		if err := ex.ClosePosition(ctx, p.ID, 0); err != nil {
			errs = append(errs, fmt.Errorf("포지션 %s 청산 실패: %w", p.ID, err))
			continue
		}
		closed++
	}
	return closed, errors.Join(errs...)
}

// MarginRequired는 주문에 필요한 증거금을 계산합니다
func MarginRequired(size, price, leverage float64) float64 {
	if leverage <= 0 {
		leverage = 1
	}
	return decimal.NewFromFloat(size).
		Mul(decimal.NewFromFloat(price)).
		Div(decimal.NewFromFloat(leverage)).
		InexactFloat64()
}
