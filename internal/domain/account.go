package domain

import "time"

// Account는 계정 스냅샷입니다. 조회할 때마다 새로 만들어지며 부분 수정하지 않습니다
type Account struct {
	ID          string  // 계정 ID
	Balance     float64 // 잔고
	Equity      float64 // 평가 자산 (잔고 + 미실현 손익)
	Margin      float64 // 사용 중인 증거금
	FreeMargin  float64 // 가용 증거금
	MarginLevel float64 // 증거금 비율 (%)
	Profit      float64 // 미실현 손익 합계
	Currency    string  // 기준 통화 (예: USDT, USD)
	Leverage    float64 // 레버리지
}

// Position은 보유 포지션 정보를 표현합니다
type Position struct {
	ID            string       // 포지션 ID (REST 거래소는 심볼, 컨트랙트 거래소는 contract_id)
	Symbol        string       // 심볼
	Side          PositionSide // 롱/숏
	Size          float64      // 포지션 수량
	EntryPrice    float64      // 평균 진입가
	CurrentPrice  float64      // 현재가
	UnrealizedPnL float64      // 미실현 손익
	RealizedPnL   float64      // 실현 손익
	OpenTime      time.Time    // 진입 시간
	StopLoss      float64      // 손절가 (0이면 미설정)
	TakeProfit    float64      // 익절가 (0이면 미설정)
}

// Trade는 체결 기록입니다
type Trade struct {
	ID         string
	OrderID    string
	Symbol     string
	Side       OrderSide
	Size       float64
	Price      float64
	Commission float64
	Time       time.Time
}

// Tick은 심볼의 현재 호가 정보를 표현합니다
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
	Time   time.Time
}

// Spread는 매도/매수 호가 차이를 반환합니다
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
