package indicator

// Vote는 지표 하나의 방향 판단입니다
type Vote int

const (
	Neutral Vote = 0
	Buy     Vote = 1
	Sell    Vote = -1
)

func (v Vote) String() string {
	switch v {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NEUTRAL"
	}
}

// IndicatorVote는 지표 ID와 판단을 묶은 값입니다
type IndicatorVote struct {
	ID   ID
	Vote Vote
}

// Votes는 고정된 순서의 지표별 판단 목록입니다
type Votes []IndicatorVote

// 투표에 참여하는 지표와 순서
var votingIDs = []ID{IDRSI, IDMACD, IDBollinger, IDStochastic, IDMovingAverages}

// Votes는 지표별 매수/매도/중립 판단을 만듭니다. 값이 없는 지표는 투표하지 않습니다
func (s *Set) Votes() Votes {
	votes := make(Votes, 0, len(votingIDs))
	for _, id := range votingIDs {
		if v, ok := s.vote(id); ok {
			votes = append(votes, IndicatorVote{ID: id, Vote: v})
		}
	}
	return votes
}

func (s *Set) vote(id ID) (Vote, bool) {
	switch id {
	case IDRSI:
		if !s.RSI.Valid {
			return Neutral, false
		}
		switch {
		case s.RSI.Value > 70:
			return Sell, true
		case s.RSI.Value < 30:
			return Buy, true
		}
		return Neutral, true

	case IDMACD:
		if !s.MACD.Line.Valid || !s.MACD.Signal.Valid {
			return Neutral, false
		}
		switch {
		case s.MACD.Line.Value > s.MACD.Signal.Value:
			return Buy, true
		case s.MACD.Line.Value < s.MACD.Signal.Value:
			return Sell, true
		}
		return Neutral, true

	case IDBollinger:
		if !s.Bollinger.Upper.Valid || !s.Bollinger.Lower.Valid {
			return Neutral, false
		}
		switch {
		case s.Price > s.Bollinger.Upper.Value:
			return Sell, true
		case s.Price < s.Bollinger.Lower.Value:
			return Buy, true
		}
		return Neutral, true

	case IDStochastic:
		if !s.Stochastic.K.Valid {
			return Neutral, false
		}
		switch {
		case s.Stochastic.K.Value > 80:
			return Sell, true
		case s.Stochastic.K.Value < 20:
			return Buy, true
		}
		return Neutral, true

	case IDMovingAverages:
		ma := s.MovingAverages
		if !ma.SMA20.Valid || !ma.SMA50.Valid {
			return Neutral, false
		}
		switch {
		case s.Price > ma.SMA20.Value && ma.SMA20.Value > ma.SMA50.Value:
			return Buy, true
		case s.Price < ma.SMA20.Value && ma.SMA20.Value < ma.SMA50.Value:
			return Sell, true
		}
		return Neutral, true
	}

	return Neutral, false
}

// Count는 매수/매도 표 수와 전체 표 수를 반환합니다
func (v Votes) Count() (buy, sell, total int) {
	for _, iv := range v {
		switch iv.Vote {
		case Buy:
			buy++
		case Sell:
			sell++
		}
	}
	return buy, sell, len(v)
}

// Of는 특정 지표의 판단을 반환합니다
func (v Votes) Of(id ID) (Vote, bool) {
	for _, iv := range v {
		if iv.ID == id {
			return iv.Vote, true
		}
	}
	return Neutral, false
}
