package signal

import (
	"math"

	"github.com/assist-by/conduit/internal/analysis/indicator"
	"github.com/assist-by/conduit/internal/domain"
)

// 감성 방향 판단 기준
const (
	sentimentScoreThreshold      = 0.3
	sentimentConfidenceThreshold = 0.3
)

// Decision은 기술적 판단과 감성 판단을 결합한 결과입니다
type Decision struct {
	Direction         domain.OrderSide // 비어 있으면 시그널 없음
	Strength          domain.SignalStrength
	Confidence        float64
	Combined          float64
	TechnicalBias     indicator.Vote
	TechnicalStrength float64
	SentimentBias     indicator.Vote
}

// HasSignal은 임계값을 넘은 결정인지 반환합니다
func (d Decision) HasSignal() bool {
	return d.Direction != ""
}

// SentimentDirection은 감성 점수를 방향으로 변환합니다. 신뢰도가 낮으면 중립입니다
func SentimentDirection(s Sentiment) indicator.Vote {
	if s.Confidence < sentimentConfidenceThreshold {
		return indicator.Neutral
	}
	switch {
	case s.Score > sentimentScoreThreshold:
		return indicator.Buy
	case s.Score < -sentimentScoreThreshold:
		return indicator.Sell
	}
	return indicator.Neutral
}

// TechnicalBias는 다수결 방향과 그 비율을 반환합니다. 동률이면 중립, 0.5입니다
func TechnicalBias(votes indicator.Votes) (indicator.Vote, float64) {
	buy, sell, total := votes.Count()
	switch {
	case buy > sell:
		return indicator.Buy, float64(buy) / float64(total)
	case sell > buy:
		return indicator.Sell, float64(sell) / float64(total)
	}
	return indicator.Neutral, 0.5
}

// Combine은 지표 투표와 감성 결과를 가중 결합합니다.
// 감성은 다수결 비율이 아닌 원래 신뢰도로 가중됩니다.
func Combine(votes indicator.Votes, sentiment Sentiment, cfg Config) Decision {
	bias, strength := TechnicalBias(votes)
	sentBias := SentimentDirection(sentiment)

	combined := float64(bias)*strength*cfg.TechnicalWeight +
		float64(sentBias)*sentiment.Confidence*cfg.SentimentWeight

	d := Decision{
		Strength:          StrengthFromScore(combined),
		Confidence:        math.Min(math.Abs(combined), 1.0),
		Combined:          combined,
		TechnicalBias:     bias,
		TechnicalStrength: strength,
		SentimentBias:     sentBias,
	}

	switch {
	case combined > cfg.Threshold:
		d.Direction = domain.Buy
	case combined < -cfg.Threshold:
		d.Direction = domain.Sell
	}
	return d
}

// StrengthFromScore는 |결합 점수|를 5단계 강도로 변환합니다
func StrengthFromScore(score float64) domain.SignalStrength {
	abs := math.Abs(score)
	switch {
	case abs >= 0.8:
		return domain.VeryStrong
	case abs >= 0.6:
		return domain.Strong
	case abs >= 0.4:
		return domain.Moderate
	case abs >= 0.2:
		return domain.Weak
	default:
		return domain.VeryWeak
	}
}
