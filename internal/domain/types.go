package domain

import "fmt"

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite는 반대 방향을 반환합니다 (청산, SL/TP 주문용)
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
)

// CloseSide는 포지션을 청산할 때 사용할 주문 방향을 반환합니다
func (s PositionSide) CloseSide() OrderSide {
	if s == LongPosition {
		return Sell
	}
	return Buy
}

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	Stop      OrderType = "STOP"
	StopLimit OrderType = "STOP_LIMIT"
)

// NeedsPrice는 지정가가 필요한 주문 유형인지 확인합니다
func (t OrderType) NeedsPrice() bool {
	return t == Limit || t == StopLimit
}

// NeedsStopPrice는 트리거 가격이 필요한 주문 유형인지 확인합니다
func (t OrderType) NeedsStopPrice() bool {
	return t == Stop || t == StopLimit
}

// OrderStatus는 주문 상태를 정의합니다
type OrderStatus string

const (
	StatusPending         OrderStatus = "PENDING"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// IsTerminal은 더 이상 상태 전이가 없는 최종 상태인지 확인합니다
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition은 주문 상태 전이가 허용되는지 확인합니다
// Pending -> {Filled, PartiallyFilled, Cancelled, Rejected}
// PartiallyFilled -> {Filled, Cancelled}
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusFilled || to == StatusPartiallyFilled ||
			to == StatusCancelled || to == StatusRejected
	case StatusPartiallyFilled:
		return to == StatusFilled || to == StatusCancelled || to == StatusPartiallyFilled
	default:
		return false
	}
}

// SignalStrength는 시그널 강도(5단계)를 정의합니다
type SignalStrength int

const (
	VeryWeak SignalStrength = iota + 1
	Weak
	Moderate
	Strong
	VeryStrong
)

// String은 SignalStrength의 문자열 표현을 반환합니다
func (s SignalStrength) String() string {
	switch s {
	case VeryWeak:
		return "VeryWeak"
	case Weak:
		return "Weak"
	case Moderate:
		return "Moderate"
	case Strong:
		return "Strong"
	case VeryStrong:
		return "VeryStrong"
	default:
		return fmt.Sprintf("SignalStrength(%d)", int(s))
	}
}

// ParseSignalStrength는 설정 문자열을 SignalStrength로 변환합니다
func ParseSignalStrength(s string) (SignalStrength, error) {
	for st := VeryWeak; st <= VeryStrong; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("알 수 없는 시그널 강도: %s", s)
}
