package domain

import "time"

// OrderRequest는 주문 요청 정보를 표현합니다
// 0 값은 지정하지 않은 것으로 취급합니다
type OrderRequest struct {
	Symbol        string    // 심볼 (예: BTCUSDT)
	Side          OrderSide // 매수/매도
	Type          OrderType // 주문 유형
	Size          float64   // 수량
	Price         float64   // 지정가 (Limit, StopLimit)
	StopPrice     float64   // 트리거 가격 (Stop, StopLimit)
	StopLoss      float64   // 손절가
	TakeProfit    float64   // 익절가
	ClientOrderID string    // 클라이언트 측 주문 ID (비어있으면 어댑터가 생성)
}

// ModifyRequest는 주문 변경 요청입니다. 0 값 필드는 기존 주문 값을 유지합니다
type ModifyRequest struct {
	OrderID   string
	Size      float64
	Price     float64
	StopPrice float64
}

// Order는 주문 정보를 표현합니다
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Size          float64 // 요청 수량
	Price         float64
	StopPrice     float64
	Status        OrderStatus
	FilledSize    float64
	AvgFillPrice  float64
	CreateTime    time.Time
	UpdateTime    time.Time
}

// RemainingSize는 미체결 수량을 반환합니다
func (o Order) RemainingSize() float64 {
	if o.FilledSize >= o.Size {
		return 0
	}
	return o.Size - o.FilledSize
}

// OrderResult는 주문 생성/변경 결과입니다.
// ProtectionErr가 nil이 아니면 주문(포지션)은 존재하지만 손절/익절 보호 주문이 없는 상태입니다.
type OrderResult struct {
	Order         Order
	ProtectionErr error
}

// Protected는 요청한 보호 주문이 모두 설정되었는지 확인합니다
func (r *OrderResult) Protected() bool {
	return r.ProtectionErr == nil
}

// SymbolLimits는 심볼별 주문 수량 한도입니다
type SymbolLimits struct {
	MinSize float64 `yaml:"min_size"`
	MaxSize float64 `yaml:"max_size"`
}
