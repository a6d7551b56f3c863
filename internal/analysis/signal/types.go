package signal

import (
	"context"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// Sentiment는 외부 감성 분석 결과입니다
type Sentiment struct {
	Score       float64 // [-1, 1]
	Confidence  float64 // [0, 1]
	SourceCount int
}

// SentimentProvider는 심볼별 감성 점수를 제공합니다
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string) (Sentiment, error)
}

// MarketHours는 시장 개장 여부를 제공합니다. 경고 생성에만 사용됩니다
type MarketHours interface {
	IsOpen(symbol string, at time.Time) bool
}

// CandleProvider는 오름차순 캔들 목록을 제공합니다. 요청보다 적게 반환할 수 있습니다
type CandleProvider interface {
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
}

// Config는 기술적 분석과 감성 분석의 결합 설정입니다
type Config struct {
	TechnicalWeight float64
	SentimentWeight float64
	Threshold       float64 // |결합 점수|가 이 값을 넘어야 시그널 발생
}

// DefaultConfig는 기본 결합 설정을 반환합니다
func DefaultConfig() Config {
	return Config{TechnicalWeight: 0.7, SentimentWeight: 0.3, Threshold: 0.3}
}

// Result는 심볼 하나의 시그널 생성 결과입니다. Signal과 Err가 모두 nil이면 시그널 없음입니다
type Result struct {
	Signal *domain.TradingSignal
	Err    error
}
