package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/conduit/internal/domain"
)

func TestValidateOrder(t *testing.T) {
	rules := &mockExchange{}
	valid := domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.Buy, Type: domain.Market, Size: 0.01}

	tests := []struct {
		name    string
		mutate  func(*domain.OrderRequest)
		wantErr bool
	}{
		{"정상 시장가", func(r *domain.OrderRequest) {}, false},
		{"알 수 없는 심볼", func(r *domain.OrderRequest) { r.Symbol = "DOGE" }, true},
		{"최소 수량 미만", func(r *domain.OrderRequest) { r.Size = 0.0001 }, true},
		{"최대 수량 초과", func(r *domain.OrderRequest) { r.Size = 101 }, true},
		{"가격 없는 지정가", func(r *domain.OrderRequest) { r.Type = domain.Limit }, true},
		{"가격 있는 지정가", func(r *domain.OrderRequest) { r.Type = domain.Limit; r.Price = 100 }, false},
		{"가격 없는 스탑리밋", func(r *domain.OrderRequest) { r.Type = domain.StopLimit; r.StopPrice = 99 }, true},
		{"트리거 없는 스탑", func(r *domain.OrderRequest) { r.Type = domain.Stop }, true},
		{"잘못된 방향", func(r *domain.OrderRequest) { r.Side = "HOLD" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateOrder(rules, req)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCancelAllOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("취소 미지원 거래소", func(t *testing.T) {
		ex := &mockExchange{}
		_, err := CancelAllOrders(ctx, ex)
		assert.ErrorIs(t, err, domain.ErrUnsupported)
		ex.AssertNotCalled(t, "GetOrders", mock.Anything)
	})

	t.Run("대기 주문만 취소", func(t *testing.T) {
		ex := &mockExchange{caps: Capabilities{CancelOrder: true}}
		ex.On("GetOrders", ctx).Return([]domain.Order{
			{ID: "1", Status: domain.StatusPending},
			{ID: "2", Status: domain.StatusFilled},
			{ID: "3", Status: domain.StatusPending},
		}, nil)
		ex.On("CancelOrder", ctx, "1").Return(nil)
		ex.On("CancelOrder", ctx, "3").Return(errors.New("unknown order"))

		n, err := CancelAllOrders(ctx, ex)
		assert.Equal(t, 1, n)
		assert.Error(t, err)
		ex.AssertNotCalled(t, "CancelOrder", ctx, "2")
	})
}

func TestCloseAllPositions(t *testing.T) {
	ctx := context.Background()
	ex := &mockExchange{}
	ex.On("GetPositions", ctx).Return([]domain.Position{{ID: "BTCUSDT"}, {ID: "ETHUSDT"}}, nil)
	ex.On("ClosePosition", ctx, "BTCUSDT", 0.0).Return(nil)
	ex.On("ClosePosition", ctx, "ETHUSDT", 0.0).Return(nil)

	n, err := CloseAllPositions(ctx, ex)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	ex.AssertExpectations(t)
}

func TestFindHelpers(t *testing.T) {
	p, ok := FindPosition([]domain.Position{{ID: "a", Symbol: "ETHUSDT"}}, "ETHUSDT")
	assert.True(t, ok)
	assert.Equal(t, "a", p.ID)

	_, ok = FindOrder(nil, "x")
	assert.False(t, ok)

	assert.InDelta(t, 500.0, MarginRequired(0.1, 50000, 10), 1e-9)
	assert.InDelta(t, 5000.0, MarginRequired(0.1, 50000, 0), 1e-9)
}

func TestFetchKlinesMany(t *testing.T) {
	ctx := context.Background()
	ex := &mockExchange{}
	ex.On("GetKlines", ctx, "BTCUSDT", domain.Interval1h, 50).Return(domain.CandleList{{Close: 1}}, nil)
	ex.On("GetKlines", ctx, "ETHUSDT", domain.Interval1h, 50).Return(nil, domain.ErrTimeout)
	ex.On("GetKlines", ctx, "SOLUSDT", domain.Interval1h, 50).Return(domain.CandleList{{Close: 2}, {Close: 3}}, nil)

	results := FetchKlinesMany(ctx, ex, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, domain.Interval1h, 50)

	require.Len(t, results, 3)
	assert.NoError(t, results["BTCUSDT"].Err)
	assert.ErrorIs(t, results["ETHUSDT"].Err, domain.ErrTimeout)
	assert.Len(t, results["SOLUSDT"].Candles, 2)
}
