package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/analysis/signal"
	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
)

// RetryConfig는 재시도 설정을 정의합니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// DefaultRetryConfig는 캔들 조회 기본 재시도 설정입니다
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
	Factor:     2,
}

// SignalHandler는 수집 사이클마다 선별된 시그널을 받습니다
type SignalHandler func(ctx context.Context, signals []*domain.TradingSignal)

// Collector는 캔들과 감성 점수를 모아 시그널을 생성합니다
type Collector struct {
	source     signal.CandleProvider
	sentiments signal.SentimentProvider
	generator  *signal.Generator

	symbols     []string
	interval    domain.TimeInterval
	candleLimit int
	minStrength domain.SignalStrength

	retry   RetryConfig
	handler SignalHandler
	log     zerolog.Logger

	mu   sync.Mutex
	last []*domain.TradingSignal
}

// CollectorOption은 수집기의 옵션을 정의합니다
type CollectorOption func(*Collector)

// WithCandleLimit은 캔들 데이터 조회 개수를 설정합니다
func WithCandleLimit(limit int) CollectorOption {
	return func(c *Collector) {
		c.candleLimit = limit
	}
}

// WithRetryConfig는 재시도 설정을 지정합니다
func WithRetryConfig(config RetryConfig) CollectorOption {
	return func(c *Collector) {
		c.retry = config
	}
}

// WithSentiment는 감성 점수 제공자를 설정합니다
func WithSentiment(p signal.SentimentProvider) CollectorOption {
	return func(c *Collector) {
		c.sentiments = p
	}
}

// WithMinStrength는 전달할 시그널의 최소 강도를 설정합니다
func WithMinStrength(s domain.SignalStrength) CollectorOption {
	return func(c *Collector) {
		c.minStrength = s
	}
}

// WithSignalHandler는 시그널 수신 함수를 설정합니다
func WithSignalHandler(h SignalHandler) CollectorOption {
	return func(c *Collector) {
		c.handler = h
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(log zerolog.Logger) CollectorOption {
	return func(c *Collector) {
		c.log = log
	}
}

// NewCollector는 새로운 데이터 수집기를 생성합니다
func NewCollector(source signal.CandleProvider, generator *signal.Generator, symbols []string, interval domain.TimeInterval, opts ...CollectorOption) *Collector {
	c := &Collector{
		source:      source,
		sentiments:  NeutralSentiment(),
		generator:   generator,
		symbols:     symbols,
		interval:    interval,
		candleLimit: 200,
		minStrength: domain.VeryWeak,
		retry:       DefaultRetryConfig,
		log:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect는 한 번의 수집 사이클을 수행하고 품질 순으로 정렬된 시그널을 반환합니다.
// 캔들은 심볼별로 동시에 조회하며 심볼마다 재시도가 따로 적용됩니다.
// 심볼별 실패는 기록만 하고 나머지 심볼은 계속 처리합니다.
// 모든 심볼의 캔들 조회가 실패한 경우에만 에러를 반환합니다.
func (c *Collector) Collect(ctx context.Context) ([]*domain.TradingSignal, error) {
	series := make(map[string]domain.CandleList, len(c.symbols))
	var errs []error

	fetched := exchange.FetchKlinesMany(ctx, retryingSource{c}, c.symbols, c.interval, c.candleLimit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, symbol := range c.symbols {
		res := fetched[symbol]
		if res.Err != nil {
			c.log.Error().Err(res.Err).Str("symbol", symbol).Msg("심볼 데이터 수집 실패")
			errs = append(errs, fmt.Errorf("%s: %w", symbol, res.Err))
			continue
		}

		c.log.Debug().Str("symbol", symbol).Int("count", len(res.Candles)).Msg("캔들 데이터 수집 완료")
		series[symbol] = res.Candles
	}

	if len(series) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("모든 심볼 수집 실패: %w", errors.Join(errs...))
	}

	results := c.generator.GenerateMany(ctx, series, c.sentiments)
	signals := signal.RankByQuality(signal.FilterByStrength(signal.Collect(results), c.minStrength))

	c.mu.Lock()
	c.last = signals
	c.mu.Unlock()

	c.log.Info().
		Int("symbols", len(c.symbols)).
		Int("failed", len(errs)).
		Int("signals", len(signals)).
		Msg("수집 사이클 완료")

	return signals, nil
}

// Execute는 스케줄러 작업으로 수집을 실행하고 결과를 핸들러에 넘깁니다
func (c *Collector) Execute(ctx context.Context) error {
	signals, err := c.Collect(ctx)
	if err != nil {
		return err
	}
	if c.handler != nil && len(signals) > 0 {
		c.handler(ctx, signals)
	}
	return nil
}

// Last는 마지막 사이클의 시그널을 반환합니다
func (c *Collector) Last() []*domain.TradingSignal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.TradingSignal(nil), c.last...)
}

// retryingSource는 심볼별 캔들 조회에 재시도를 붙입니다
type retryingSource struct {
	c *Collector
}

func (r retryingSource) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	var candles domain.CandleList
	err := r.c.withRetry(ctx, fmt.Sprintf("%s 캔들 데이터 조회", symbol), func() error {
		var err error
		candles, err = r.c.source.GetKlines(ctx, symbol, interval, limit)
		return err
	})
	return candles, err
}

// isRetryable은 네트워크 오류와 요청 한도 초과만 재시도 대상으로 봅니다
func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrConnection) ||
		errors.Is(err, domain.ErrTimeout) ||
		errors.Is(err, domain.ErrRateLimit)
}

// withRetry는 재시도 로직을 구현한 래퍼 함수입니다
func (c *Collector) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := c.retry.BaseDelay

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if attempt == c.retry.MaxRetries {
			return fmt.Errorf("%s 실패 (최대 재시도 횟수 초과): %w", operation, lastErr)
		}

		c.log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max", c.retry.MaxRetries).
			Msgf("%s 실패, 재시도", operation)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * c.retry.Factor)
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}
	}
	return lastErr
}
