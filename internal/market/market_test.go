package market

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/conduit/internal/analysis/signal"
	"github.com/assist-by/conduit/internal/domain"
)

var fastRetry = RetryConfig{
	MaxRetries: 2,
	BaseDelay:  time.Millisecond,
	MaxDelay:   time.Millisecond,
	Factor:     1,
}

type mockCandles struct {
	mock.Mock
}

func (m *mockCandles) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	args := m.Called(ctx, symbol, interval, limit)
	candles, _ := args.Get(0).(domain.CandleList)
	return candles, args.Error(1)
}

func series(symbol string, closes []float64) domain.CandleList {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(domain.CandleList, len(closes))
	for i, x := range closes {
		open := base.Add(time.Duration(i) * 15 * time.Minute)
		out[i] = domain.Candle{
			OpenTime:  open,
			CloseTime: open.Add(15*time.Minute - time.Millisecond),
			Open:      x,
			High:      x,
			Low:       x,
			Close:     x,
			Symbol:    symbol,
			Interval:  domain.Interval15m,
		}
	}
	return out
}

// 횡보 후 마지막 봉 급락: 중립 감성에서 보통 강도 매수 시그널
func dropCandles(symbol string) domain.CandleList {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	closes[59] = 80
	return series(symbol, closes)
}

func flatCandles(symbol string) domain.CandleList {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	return series(symbol, closes)
}

func newGenerator() *signal.Generator {
	return signal.NewGenerator(signal.DefaultConfig(),
		signal.WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }))
}

func TestCollect(t *testing.T) {
	source := new(mockCandles)
	source.On("GetKlines", mock.Anything, "DROP", domain.Interval15m, 100).Return(dropCandles("DROP"), nil)
	source.On("GetKlines", mock.Anything, "BAD", domain.Interval15m, 100).
		Return(nil, &domain.ValidationError{Field: "symbol", Err: errors.New("지원하지 않는 심볼")}).Once()
	source.On("GetKlines", mock.Anything, "FLAKY", domain.Interval15m, 100).
		Return(nil, fmt.Errorf("연결 끊김: %w", domain.ErrConnection)).Once()
	source.On("GetKlines", mock.Anything, "FLAKY", domain.Interval15m, 100).Return(flatCandles("FLAKY"), nil).Once()

	c := NewCollector(source, newGenerator(), []string{"DROP", "BAD", "FLAKY"}, domain.Interval15m,
		WithCandleLimit(100),
		WithRetryConfig(fastRetry),
	)

	signals, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)

	assert.Equal(t, "DROP", signals[0].Symbol)
	assert.Equal(t, domain.Buy, signals[0].Direction)
	assert.Equal(t, domain.Moderate, signals[0].Strength)
	assert.Equal(t, signals, c.Last())

	source.AssertExpectations(t)
	source.AssertNumberOfCalls(t, "GetKlines", 4)
}

func TestCollectAllFailed(t *testing.T) {
	source := new(mockCandles)
	source.On("GetKlines", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("요청 한도 초과: %w", domain.ErrRateLimit))

	c := NewCollector(source, newGenerator(), []string{"A", "B"}, domain.Interval1h, WithRetryConfig(fastRetry))

	_, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimit))
	// 심볼당 최초 1회 + 재시도 2회
	source.AssertNumberOfCalls(t, "GetKlines", 6)
}

func TestCollectCanceled(t *testing.T) {
	source := new(mockCandles)
	ctx, cancel := context.WithCancel(context.Background())
	source.On("GetKlines", mock.Anything, "A", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, fmt.Errorf("연결 끊김: %w", domain.ErrConnection))
	// B는 동시에 조회되므로 취소 전에 호출될 수도 있음
	source.On("GetKlines", mock.Anything, "B", mock.Anything, mock.Anything).
		Return(flatCandles("B"), nil).Maybe()

	c := NewCollector(source, newGenerator(), []string{"A", "B"}, domain.Interval1h, WithRetryConfig(fastRetry))

	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, c.Last())
}

// slowCandles는 조회마다 지연을 두고 동시 조회 수의 최대값을 기록합니다
type slowCandles struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (s *slowCandles) GetKlines(ctx context.Context, symbol string, _ domain.TimeInterval, _ int) (domain.CandleList, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	if symbol == "BAD" {
		return nil, &domain.ValidationError{Field: "symbol", Err: errors.New("지원하지 않는 심볼")}
	}
	return flatCandles(symbol), nil
}

func TestCollectFetchesConcurrently(t *testing.T) {
	source := &slowCandles{delay: 50 * time.Millisecond}
	c := NewCollector(source, newGenerator(), []string{"A", "B", "BAD", "D"}, domain.Interval15m,
		WithRetryConfig(fastRetry))

	started := time.Now()
	signals, err := c.Collect(context.Background())
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Empty(t, signals)
	assert.Greater(t, source.peak.Load(), int32(1), "캔들 조회가 순차로 실행됨")
	assert.Less(t, elapsed, 4*source.delay)
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name        string
		minStrength domain.SignalStrength
		wantHandled int
	}{
		{name: "보통 강도 이상 전달", minStrength: domain.Moderate, wantHandled: 1},
		{name: "강함 이상이면 전달 없음", minStrength: domain.Strong, wantHandled: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(mockCandles)
			source.On("GetKlines", mock.Anything, "DROP", domain.Interval15m, 200).Return(dropCandles("DROP"), nil)

			var handled []*domain.TradingSignal
			c := NewCollector(source, newGenerator(), []string{"DROP"}, domain.Interval15m,
				WithMinStrength(tt.minStrength),
				WithSignalHandler(func(_ context.Context, signals []*domain.TradingSignal) {
					handled = append(handled, signals...)
				}),
			)

			require.NoError(t, c.Execute(context.Background()))
			assert.Len(t, handled, tt.wantHandled)
		})
	}
}

func TestCollectUsesSentiment(t *testing.T) {
	source := new(mockCandles)
	source.On("GetKlines", mock.Anything, "DROP", mock.Anything, mock.Anything).Return(dropCandles("DROP"), nil)

	sentiment := NewStaticSentiment(signal.Sentiment{}, map[string]signal.Sentiment{
		"drop": {Score: 0.9, Confidence: 0.9, SourceCount: 3},
	})
	c := NewCollector(source, newGenerator(), []string{"DROP"}, domain.Interval15m, WithSentiment(sentiment))

	signals, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Contains(t, signals[0].Reasons, "Positive market sentiment")
	// 0.6*0.7 + 0.9*0.3
	assert.InDelta(t, 0.69, signals[0].Confidence, 1e-9)
}

func TestStaticSentiment(t *testing.T) {
	s := NewStaticSentiment(signal.Sentiment{Score: 0.1}, map[string]signal.Sentiment{"btcusdt": {Score: -0.5, Confidence: 0.8}})

	got, err := s.Sentiment(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, -0.5, got.Score)

	got, err = s.Sentiment(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.Score)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Sentiment(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	h := NewSessionHours(map[string]AssetClass{"gold": Forex})

	tests := []struct {
		symbol string
		want   AssetClass
	}{
		{"BTCUSDT", Crypto},
		{"ETHBTC", Crypto},
		{"cryBTCUSD", Crypto},
		{"frxEURUSD", Forex},
		{"EURUSD", Forex},
		{"R_100", Synthetic},
		{"1HZ100V", Synthetic},
		{"AAPL", Stock},
		{"GOLD", Forex},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Classify(tt.symbol))
		})
	}
}

func TestIsSessionOpen(t *testing.T) {
	at := func(day, hour, minute int) time.Time {
		// 2024-01-01은 월요일
		return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		class AssetClass
		at    time.Time
		want  bool
	}{
		{"암호화폐 토요일", Crypto, at(6, 12, 0), true},
		{"합성 지수 일요일", Synthetic, at(7, 3, 0), true},
		{"외환 수요일", Forex, at(3, 12, 0), true},
		{"외환 금요일 마감 직전", Forex, at(5, 21, 59), true},
		{"외환 금요일 마감", Forex, at(5, 22, 0), false},
		{"외환 토요일", Forex, at(6, 12, 0), false},
		{"외환 일요일 개장 전", Forex, at(7, 21, 59), false},
		{"외환 일요일 개장", Forex, at(7, 22, 0), true},
		{"주식 개장 전", Stock, at(8, 14, 29), false},
		{"주식 개장", Stock, at(8, 14, 30), true},
		{"주식 마감 직전", Stock, at(8, 20, 59), true},
		{"주식 마감", Stock, at(8, 21, 0), false},
		{"주식 토요일", Stock, at(6, 15, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSessionOpen(tt.class, tt.at))
		})
	}

	h := NewSessionHours(nil)
	assert.False(t, h.IsOpen("frxEURUSD", at(6, 12, 0)))
	assert.True(t, h.IsOpen("BTCUSDT", at(6, 12, 0)))
}
