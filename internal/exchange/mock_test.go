package exchange

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/assist-by/conduit/internal/domain"
)

type mockExchange struct {
	mock.Mock
	caps Capabilities
}

func (m *mockExchange) Name() string               { return "mock" }
func (m *mockExchange) Capabilities() Capabilities { return m.caps }

func (m *mockExchange) ValidateSymbol(symbol string) bool { return symbol == "BTCUSDT" }
func (m *mockExchange) MinSize(string) float64            { return 0.001 }
func (m *mockExchange) MaxSize(string) float64            { return 100 }

func (m *mockExchange) Connect(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *mockExchange) Disconnect(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockExchange) GetAccount(ctx context.Context) (*domain.Account, error) {
	args := m.Called(ctx)
	acc, _ := args.Get(0).(*domain.Account)
	return acc, args.Error(1)
}

func (m *mockExchange) GetPositions(ctx context.Context) ([]domain.Position, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Position)
	return ps, args.Error(1)
}

func (m *mockExchange) GetOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

func (m *mockExchange) GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error) {
	args := m.Called(ctx, from, to)
	ts, _ := args.Get(0).([]domain.Trade)
	return ts, args.Error(1)
}

func (m *mockExchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*domain.OrderResult)
	return r, args.Error(1)
}

func (m *mockExchange) ModifyOrder(ctx context.Context, req domain.ModifyRequest) (*domain.OrderResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*domain.OrderResult)
	return r, args.Error(1)
}

func (m *mockExchange) CancelOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockExchange) ClosePosition(ctx context.Context, id string, size float64) error {
	return m.Called(ctx, id, size).Error(0)
}

func (m *mockExchange) GetMarketData(ctx context.Context, symbol string) (*domain.Tick, error) {
	args := m.Called(ctx, symbol)
	t, _ := args.Get(0).(*domain.Tick)
	return t, args.Error(1)
}

func (m *mockExchange) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	args := m.Called(ctx, symbol, interval, limit)
	cl, _ := args.Get(0).(domain.CandleList)
	return cl, args.Error(1)
}

func (m *mockExchange) GetSymbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}
