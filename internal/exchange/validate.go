package exchange

import (
	"fmt"

	"github.com/assist-by/conduit/internal/domain"
)

// ValidateOrder는 모든 어댑터가 공통으로 사용하는 주문 검증입니다
func ValidateOrder(rules SymbolRules, req domain.OrderRequest) error {
	if !rules.ValidateSymbol(req.Symbol) {
		return &domain.ValidationError{Field: "symbol", Err: fmt.Errorf("지원하지 않는 심볼: %s", req.Symbol)}
	}

	if req.Side != domain.Buy && req.Side != domain.Sell {
		return &domain.ValidationError{Field: "side", Err: fmt.Errorf("알 수 없는 주문 방향: %q", req.Side)}
	}

	if min := rules.MinSize(req.Symbol); req.Size < min {
		return &domain.ValidationError{Field: "size", Err: fmt.Errorf("최소 수량(%v)보다 작습니다: %v", min, req.Size)}
	}
	if max := rules.MaxSize(req.Symbol); req.Size > max {
		return &domain.ValidationError{Field: "size", Err: fmt.Errorf("최대 수량(%v)보다 큽니다: %v", max, req.Size)}
	}

	if req.Type.NeedsPrice() && req.Price <= 0 {
		return &domain.ValidationError{Field: "price", Err: fmt.Errorf("%s 주문에는 가격이 필요합니다", req.Type)}
	}
	if req.Type.NeedsStopPrice() && req.StopPrice <= 0 {
		return &domain.ValidationError{Field: "stopPrice", Err: fmt.Errorf("%s 주문에는 트리거 가격이 필요합니다", req.Type)}
	}

	return nil
}
