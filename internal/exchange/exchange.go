package exchange

import (
	"context"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// Capabilities는 거래소 어댑터가 지원하는 선택적 기능입니다.
// 지원하지 않는 작업은 domain.ErrUnsupported를 반환합니다.
type Capabilities struct {
	ModifyOrder  bool // 주문 변경
	CancelOrder  bool // 주문 취소
	PartialClose bool // 부분 청산
}

// SymbolRules는 주문 검증에 필요한 심볼 규칙 조회 기능입니다
type SymbolRules interface {
	ValidateSymbol(symbol string) bool
	MinSize(symbol string) float64
	MaxSize(symbol string) float64
}

// Exchange는 거래소와의 상호작용을 위한 인터페이스입니다.
type Exchange interface {
	SymbolRules

	Name() string
	Capabilities() Capabilities

	// 연결 관리
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// 계정 데이터 조회
	GetAccount(ctx context.Context) (*domain.Account, error)
	GetPositions(ctx context.Context) ([]domain.Position, error)
	GetOrders(ctx context.Context) ([]domain.Order, error)
	GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
	ModifyOrder(ctx context.Context, req domain.ModifyRequest) (*domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	// ClosePosition은 포지션을 청산합니다. size가 0이면 전량 청산입니다
	ClosePosition(ctx context.Context, positionID string, size float64) error

	// 시장 데이터 조회
	GetMarketData(ctx context.Context, symbol string) (*domain.Tick, error)
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
	GetSymbols(ctx context.Context) ([]string, error)
}
