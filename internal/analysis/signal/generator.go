package signal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/analysis/indicator"
	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/metrics"
)

// Generator는 지표와 감성 결과로 매매 시그널을 만듭니다
type Generator struct {
	cfg        Config
	indicators indicator.SetOption
	hours      MarketHours
	clock      func() time.Time
	log        zerolog.Logger
}

// Option은 Generator 옵션입니다
type Option func(*Generator)

// WithClock은 시그널 생성 시각을 정하는 함수를 설정합니다
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithMarketHours는 개장 여부 확인자를 설정합니다
func WithMarketHours(hours MarketHours) Option {
	return func(g *Generator) {
		g.hours = hours
	}
}

// WithIndicatorOption은 지표 계산 설정을 바꿉니다
func WithIndicatorOption(opt indicator.SetOption) Option {
	return func(g *Generator) {
		g.indicators = opt
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// NewGenerator는 새로운 시그널 생성기를 만듭니다
func NewGenerator(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:        cfg,
		indicators: indicator.DefaultSetOption(),
		clock:      time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate는 캔들과 감성 결과로 시그널을 만듭니다.
// 결합 점수가 임계값 이하면 (nil, nil)을 반환합니다.
func (g *Generator) Generate(ctx context.Context, symbol string, candles domain.CandleList, sentiment Sentiment) (*domain.TradingSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	last, ok := candles.GetLastCandle()
	if !ok {
		return nil, fmt.Errorf("%s 캔들 없음: %w", symbol, domain.ErrInsufficientData)
	}
	if err := candles.Validate(); err != nil {
		return nil, fmt.Errorf("%s 캔들 검증 실패: %w", symbol, err)
	}

	set, err := indicator.Calculate(indicator.FromCandles(candles), g.indicators)
	if err != nil {
		return nil, fmt.Errorf("%s 지표 계산 실패: %w", symbol, err)
	}

	votes := set.Votes()
	decision := Combine(votes, sentiment, g.cfg)
	if !decision.HasSignal() {
		g.log.Debug().
			Str("symbol", symbol).
			Float64("combined", decision.Combined).
			Msg("임계값 미만, 시그널 없음")
		return nil, nil
	}

	now := g.clock()
	warnings := g.warnings(symbol, set, sentiment, now)

	atr := set.ATR.Value
	if !set.ATR.Valid {
		atr = set.Price * 0.01
		warnings = append(warnings, "ATR unavailable - levels derived from 1% of price")
	}
	lv := ComputeLevels(decision.Direction, set.Price, atr, set.Levels)

	sig := &domain.TradingSignal{
		Symbol:     symbol,
		Direction:  decision.Direction,
		Strength:   decision.Strength,
		Confidence: decision.Confidence,
		EntryPrice: lv.Entry,
		StopLoss:   lv.StopLoss,
		TakeProfit: lv.TakeProfit,
		RiskReward: lv.RiskReward,
		Timeframe:  last.Interval,
		Reasons:    reasons(votes, set, decision.SentimentBias),
		Warnings:   warnings,
		CreatedAt:  now,
	}

	metrics.SignalsTotal.WithLabelValues(symbol, string(sig.Direction)).Inc()
	g.log.Info().
		Str("symbol", symbol).
		Str("direction", string(sig.Direction)).
		Str("strength", sig.Strength.String()).
		Float64("confidence", sig.Confidence).
		Msg("시그널 생성")

	return sig, nil
}

// GenerateMany는 여러 심볼의 시그널을 동시에 생성합니다. 한 심볼의 실패는 다른 심볼에 영향을 주지 않습니다
func (g *Generator) GenerateMany(ctx context.Context, series map[string]domain.CandleList, sentiments SentimentProvider) map[string]Result {
	results := make(map[string]Result, len(series))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for symbol, candles := range series {
		wg.Add(1)
		go func(symbol string, candles domain.CandleList) {
			defer wg.Done()

			var res Result
			sentiment, err := sentiments.Sentiment(ctx, symbol)
			if err != nil {
				res.Err = fmt.Errorf("%s 감성 분석 조회 실패: %w", symbol, err)
			} else {
				res.Signal, res.Err = g.Generate(ctx, symbol, candles, sentiment)
			}
			if res.Err != nil {
				g.log.Error().Err(res.Err).Str("symbol", symbol).Msg("시그널 생성 실패")
			}

			mu.Lock()
			results[symbol] = res
			mu.Unlock()
		}(symbol, candles)
	}

	wg.Wait()
	return results
}

// warnings는 시그널과 함께 전달할 위험 경고를 만듭니다
func (g *Generator) warnings(symbol string, set *indicator.Set, sentiment Sentiment, now time.Time) []string {
	var out []string

	if sentiment.Confidence < sentimentConfidenceThreshold {
		out = append(out, "Low sentiment analysis confidence")
	}
	if set.RSI.Valid && set.RSI.Value >= 30 && set.RSI.Value <= 70 {
		out = append(out, "RSI in neutral zone - mixed signals possible")
	}
	if set.ATR.Valid && set.Price > 0 && set.ATR.Value/set.Price*100 < 0.5 {
		out = append(out, "Low volatility - ATR below 0.5% of price")
	}
	if g.hours != nil && !g.hours.IsOpen(symbol, now) {
		out = append(out, "Market is closed - execution may be delayed")
	}
	return out
}

// reasons는 투표 결과를 사람이 읽을 수 있는 근거로 변환합니다
func reasons(votes indicator.Votes, set *indicator.Set, sentimentBias indicator.Vote) []string {
	var out, bullish, bearish []string
	for _, v := range votes {
		switch v.Vote {
		case indicator.Buy:
			bullish = append(bullish, v.ID.String())
		case indicator.Sell:
			bearish = append(bearish, v.ID.String())
		}
	}

	if len(bullish) > 0 {
		out = append(out, "Bullish technical indicators: "+strings.Join(bullish, ", "))
	}
	if len(bearish) > 0 {
		out = append(out, "Bearish technical indicators: "+strings.Join(bearish, ", "))
	}

	if set.RSI.Valid {
		switch {
		case set.RSI.Value > 70:
			out = append(out, fmt.Sprintf("RSI overbought at %.1f", set.RSI.Value))
		case set.RSI.Value < 30:
			out = append(out, fmt.Sprintf("RSI oversold at %.1f", set.RSI.Value))
		}
	}

	if set.MACD.Line.Valid && set.MACD.Signal.Valid {
		switch {
		case set.MACD.Line.Value > set.MACD.Signal.Value:
			out = append(out, "MACD bullish crossover")
		case set.MACD.Line.Value < set.MACD.Signal.Value:
			out = append(out, "MACD bearish crossover")
		}
	}

	switch sentimentBias {
	case indicator.Buy:
		out = append(out, "Positive market sentiment")
	case indicator.Sell:
		out = append(out, "Negative market sentiment")
	}
	return out
}

// FilterByStrength는 최소 강도 이상의 시그널만 남깁니다
func FilterByStrength(signals []*domain.TradingSignal, minStrength domain.SignalStrength) []*domain.TradingSignal {
	var out []*domain.TradingSignal
	for _, s := range signals {
		if s != nil && s.Strength >= minStrength {
			out = append(out, s)
		}
	}
	return out
}

// QualityScore는 강도, 신뢰도, 손익비(3:1 상한)를 가중한 품질 점수입니다
func QualityScore(s *domain.TradingSignal) float64 {
	rr := s.RiskReward / 3
	if rr > 1 {
		rr = 1
	}
	return float64(s.Strength)/5*0.4 + s.Confidence*0.4 + rr*0.2
}

// RankByQuality는 품질 점수 내림차순으로 정렬한 새 목록을 반환합니다. 동점이면 심볼 순입니다
func RankByQuality(signals []*domain.TradingSignal) []*domain.TradingSignal {
	ranked := append([]*domain.TradingSignal(nil), signals...)
	sort.SliceStable(ranked, func(i, j int) bool {
		qi, qj := QualityScore(ranked[i]), QualityScore(ranked[j])
		if qi != qj {
			return qi > qj
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked
}

// Collect는 배치 결과에서 시그널만 모읍니다
func Collect(results map[string]Result) []*domain.TradingSignal {
	var out []*domain.TradingSignal
	for _, r := range results {
		if r.Signal != nil {
			out = append(out, r.Signal)
		}
	}
	return out
}
