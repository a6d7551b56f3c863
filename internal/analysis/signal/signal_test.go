package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/conduit/internal/analysis/indicator"
	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/metrics"
)

var (
	baseTime  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

type closedMarket struct{}

func (closedMarket) IsOpen(string, time.Time) bool { return false }

type mockSentiment struct {
	mock.Mock
}

func (m *mockSentiment) Sentiment(ctx context.Context, symbol string) (Sentiment, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(Sentiment), args.Error(1)
}

func candlesFromCloses(symbol string, xs ...float64) domain.CandleList {
	candles := make(domain.CandleList, len(xs))
	for i, x := range xs {
		open := baseTime.Add(time.Duration(i) * 15 * time.Minute)
		candles[i] = domain.Candle{
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
	return candles
}

// 횡보 후 마지막 봉에서 급락: RSI, 볼린저, 스토캐스틱은 매수 / MACD, 이동평균은 매도
func dropSeries(symbol string) domain.CandleList {
	xs := make([]float64, 60)
	for i := range xs {
		xs[i] = 100
	}
	xs[59] = 80
	return candlesFromCloses(symbol, xs...)
}

func flatSeries(symbol string, n int) domain.CandleList {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = 100
	}
	return candlesFromCloses(symbol, xs...)
}

func votesOf(vs ...indicator.Vote) indicator.Votes {
	ids := []indicator.ID{indicator.IDRSI, indicator.IDMACD, indicator.IDBollinger, indicator.IDStochastic, indicator.IDMovingAverages}
	out := make(indicator.Votes, len(vs))
	for i, v := range vs {
		out[i] = indicator.IndicatorVote{ID: ids[i], Vote: v}
	}
	return out
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name           string
		votes          indicator.Votes
		sentiment      Sentiment
		wantDirection  domain.OrderSide
		wantStrength   domain.SignalStrength
		wantConfidence float64
	}{
		{
			name:           "결합 점수 0.35는 약한 매수",
			votes:          votesOf(indicator.Buy, indicator.Neutral),
			wantDirection:  domain.Buy,
			wantStrength:   domain.Weak,
			wantConfidence: 0.35,
		},
		{
			name:           "전원 매도와 부정 감성",
			votes:          votesOf(indicator.Sell, indicator.Sell, indicator.Sell, indicator.Sell, indicator.Sell),
			sentiment:      Sentiment{Score: -0.8, Confidence: 0.9},
			wantDirection:  domain.Sell,
			wantStrength:   domain.VeryStrong,
			wantConfidence: 0.97,
		},
		{
			name:           "동률이면 기술적 판단은 중립",
			votes:          votesOf(indicator.Buy, indicator.Sell),
			sentiment:      Sentiment{Score: 0.9, Confidence: 0.5},
			wantStrength:   domain.VeryWeak,
			wantConfidence: 0.15,
		},
		{
			name:           "신뢰도 낮은 감성은 무시",
			votes:          votesOf(indicator.Buy, indicator.Buy, indicator.Sell),
			sentiment:      Sentiment{Score: 0.9, Confidence: 0.2},
			wantDirection:  domain.Buy,
			wantStrength:   domain.Moderate,
			wantConfidence: 2.0 / 3.0 * 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Combine(tt.votes, tt.sentiment, DefaultConfig())
			assert.Equal(t, tt.wantDirection, d.Direction)
			assert.Equal(t, tt.wantDirection != "", d.HasSignal())
			assert.Equal(t, tt.wantStrength, d.Strength)
			assert.InDelta(t, tt.wantConfidence, d.Confidence, 1e-9)
		})
	}
}

func TestSentimentDirection(t *testing.T) {
	assert.Equal(t, indicator.Buy, SentimentDirection(Sentiment{Score: 0.5, Confidence: 0.3}))
	assert.Equal(t, indicator.Sell, SentimentDirection(Sentiment{Score: -0.5, Confidence: 0.8}))
	assert.Equal(t, indicator.Neutral, SentimentDirection(Sentiment{Score: 0.3, Confidence: 0.8}))
	assert.Equal(t, indicator.Neutral, SentimentDirection(Sentiment{Score: 0.9, Confidence: 0.29}))
}

func TestStrengthFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.SignalStrength
	}{
		{0.1, domain.VeryWeak},
		{0.2, domain.Weak},
		{-0.39, domain.Weak},
		{0.4, domain.Moderate},
		{0.6, domain.Strong},
		{-0.8, domain.VeryStrong},
		{1.5, domain.VeryStrong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrengthFromScore(tt.score), "score %v", tt.score)
	}
}

func TestComputeLevels(t *testing.T) {
	tests := []struct {
		name      string
		direction domain.OrderSide
		levels    indicator.Levels
		want      Levels
	}{
		{
			name:      "매수, 3ATR 이내 지지선",
			direction: domain.Buy,
			levels:    indicator.Levels{Support: []float64{90, 97}},
			want:      Levels{Entry: 100, StopLoss: 96.5, TakeProfit: 107, RiskReward: 2},
		},
		{
			name:      "매수, 목표보다 가까운 저항선",
			direction: domain.Buy,
			levels:    indicator.Levels{Support: []float64{97}, Resistance: []float64{104}},
			want:      Levels{Entry: 100, StopLoss: 96.5, TakeProfit: 103.5, RiskReward: 1},
		},
		{
			name:      "매수, 먼 지지선은 무시",
			direction: domain.Buy,
			levels:    indicator.Levels{Support: []float64{95}},
			want:      Levels{Entry: 100, StopLoss: 98, TakeProfit: 104, RiskReward: 2},
		},
		{
			name:      "매도, 저항선 위 손절과 지지선 위 익절",
			direction: domain.Sell,
			levels:    indicator.Levels{Support: []float64{97}, Resistance: []float64{102}},
			want:      Levels{Entry: 100, StopLoss: 102.5, TakeProfit: 97.5, RiskReward: 1},
		},
		{
			name:      "매도, 지지/저항 없음",
			direction: domain.Sell,
			want:      Levels{Entry: 100, StopLoss: 102, TakeProfit: 96, RiskReward: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLevels(tt.direction, 100, 1, tt.levels))
		})
	}
}

func TestComputeLevelsZeroRisk(t *testing.T) {
	lv := ComputeLevels(domain.Buy, 100, 0, indicator.Levels{})
	assert.Equal(t, 100.0, lv.StopLoss)
	assert.Equal(t, 0.0, lv.RiskReward)
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(DefaultConfig(), WithClock(func() time.Time { return fixedTime }), WithMarketHours(closedMarket{}))

	before := testutil.ToFloat64(metrics.SignalsTotal.WithLabelValues("DROP", string(domain.Buy)))

	sig, err := g.Generate(context.Background(), "DROP", dropSeries("DROP"), Sentiment{})
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, domain.Buy, sig.Direction)
	assert.Equal(t, domain.Moderate, sig.Strength)
	assert.InDelta(t, 0.42, sig.Confidence, 1e-9)
	assert.Equal(t, 80.0, sig.EntryPrice)
	assert.Equal(t, 77.14286, sig.StopLoss)
	assert.Equal(t, 85.71429, sig.TakeProfit)
	assert.InDelta(t, 2.0, sig.RiskReward, 1e-4)
	assert.Equal(t, domain.Interval15m, sig.Timeframe)
	assert.Equal(t, fixedTime, sig.CreatedAt)

	assert.Equal(t, []string{
		"Bullish technical indicators: RSI, Bollinger, Stochastic",
		"Bearish technical indicators: MACD, MovingAverages",
		"RSI oversold at 0.0",
		"MACD bearish crossover",
	}, sig.Reasons)
	assert.Equal(t, []string{
		"Low sentiment analysis confidence",
		"Market is closed - execution may be delayed",
	}, sig.Warnings)

	after := testutil.ToFloat64(metrics.SignalsTotal.WithLabelValues("DROP", string(domain.Buy)))
	assert.Equal(t, before+1, after)
}

func TestGenerateDeterministic(t *testing.T) {
	g := NewGenerator(DefaultConfig(), WithClock(func() time.Time { return fixedTime }))
	sentiment := Sentiment{Score: 0.6, Confidence: 0.7, SourceCount: 12}

	first, err := g.Generate(context.Background(), "DROP", dropSeries("DROP"), sentiment)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), "DROP", dropSeries("DROP"), sentiment)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Reasons, "Positive market sentiment")
}

func TestGenerateBelowThreshold(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	sig, err := g.Generate(context.Background(), "FLAT", flatSeries("FLAT", 60), Sentiment{})
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestGenerateInsufficientData(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	_, err := g.Generate(context.Background(), "SHORT", flatSeries("SHORT", 30), Sentiment{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	_, err = g.Generate(context.Background(), "EMPTY", nil, Sentiment{})
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestGenerateInvalidCandles(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	candles := dropSeries("BAD")
	candles[10], candles[11] = candles[11], candles[10]

	_, err := g.Generate(context.Background(), "BAD", candles, Sentiment{})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGenerateMany(t *testing.T) {
	sentiments := new(mockSentiment)
	sentiments.On("Sentiment", mock.Anything, "DROP").Return(Sentiment{}, nil)
	sentiments.On("Sentiment", mock.Anything, "SHORT").Return(Sentiment{}, nil)
	sentiments.On("Sentiment", mock.Anything, "DOWN").Return(Sentiment{}, errors.New("provider unavailable"))

	g := NewGenerator(DefaultConfig(), WithClock(func() time.Time { return fixedTime }))
	results := g.GenerateMany(context.Background(), map[string]domain.CandleList{
		"DROP":  dropSeries("DROP"),
		"SHORT": flatSeries("SHORT", 20),
		"DOWN":  dropSeries("DOWN"),
	}, sentiments)

	require.Len(t, results, 3)

	assert.NoError(t, results["DROP"].Err)
	require.NotNil(t, results["DROP"].Signal)

	assert.True(t, errors.Is(results["SHORT"].Err, domain.ErrInsufficientData))
	assert.Nil(t, results["SHORT"].Signal)

	assert.Error(t, results["DOWN"].Err)
	assert.Nil(t, results["DOWN"].Signal)

	assert.Len(t, Collect(results), 1)
	sentiments.AssertExpectations(t)
}

func TestFilterAndRank(t *testing.T) {
	signals := []*domain.TradingSignal{
		{Symbol: "A", Strength: domain.Weak, Confidence: 0.35, RiskReward: 2},
		{Symbol: "B", Strength: domain.Strong, Confidence: 0.65, RiskReward: 1},
		{Symbol: "C", Strength: domain.Moderate, Confidence: 0.45, RiskReward: 6},
		{Symbol: "D", Strength: domain.Strong, Confidence: 0.65, RiskReward: 1},
		nil,
	}

	filtered := FilterByStrength(signals, domain.Moderate)
	require.Len(t, filtered, 3)

	ranked := RankByQuality(filtered)
	symbols := make([]string, len(ranked))
	for i, s := range ranked {
		symbols[i] = s.Symbol
	}
	// B, D: 0.4*0.8 + 0.4*0.65 + 0.2/3 = 0.6467, C: 0.4*0.6 + 0.4*0.45 + 0.2 = 0.62
	assert.Equal(t, []string{"B", "D", "C"}, symbols)
	assert.Equal(t, "A", signals[0].Symbol)
}
