package market

import (
	"context"
	"strings"

	"github.com/assist-by/conduit/internal/analysis/signal"
)

// StaticSentiment는 고정된 감성 점수를 반환합니다. 외부 감성 분석이 연결되지 않았을 때 사용합니다
type StaticSentiment struct {
	fallback signal.Sentiment
	bySymbol map[string]signal.Sentiment
}

// NeutralSentiment는 모든 심볼에 점수 0, 신뢰도 0을 반환합니다
func NeutralSentiment() *StaticSentiment {
	return NewStaticSentiment(signal.Sentiment{}, nil)
}

// NewStaticSentiment는 심볼별 고정 점수와 기본값으로 제공자를 만듭니다
func NewStaticSentiment(fallback signal.Sentiment, bySymbol map[string]signal.Sentiment) *StaticSentiment {
	m := make(map[string]signal.Sentiment, len(bySymbol))
	for symbol, s := range bySymbol {
		m[strings.ToUpper(symbol)] = s
	}
	return &StaticSentiment{fallback: fallback, bySymbol: m}
}

// Sentiment는 심볼의 고정 점수를 반환합니다
func (s *StaticSentiment) Sentiment(ctx context.Context, symbol string) (signal.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return signal.Sentiment{}, err
	}
	if v, ok := s.bySymbol[strings.ToUpper(symbol)]; ok {
		return v, nil
	}
	return s.fallback, nil
}
