package market

import (
	"strings"
	"time"
)

// AssetClass는 거래 시간 판단용 자산 구분입니다
type AssetClass string

const (
	Crypto    AssetClass = "crypto"
	Forex     AssetClass = "forex"
	Stock     AssetClass = "stock"
	Synthetic AssetClass = "synthetic" // 24시간 거래되는 합성 지수
)

var (
	cryptoQuotes = []string{"USDT", "BUSD", "USDC", "BTC", "ETH"}

	currencies = map[string]bool{
		"USD": true, "EUR": true, "JPY": true, "GBP": true, "AUD": true,
		"CAD": true, "CHF": true, "NZD": true, "SEK": true, "NOK": true,
	}
)

// 미국 주식 정규장 (UTC, 서머타임 미반영)
const (
	stockOpen  = 14*time.Hour + 30*time.Minute
	stockClose = 21 * time.Hour
	forexHour  = 22
)

// SessionHours는 자산 구분별 거래 시간으로 개장 여부를 판단합니다
type SessionHours struct {
	overrides map[string]AssetClass
}

// NewSessionHours는 심볼별 자산 구분을 직접 지정할 수 있는 개장 판단기를 만듭니다
func NewSessionHours(overrides map[string]AssetClass) *SessionHours {
	o := make(map[string]AssetClass, len(overrides))
	for symbol, class := range overrides {
		o[strings.ToUpper(symbol)] = class
	}
	return &SessionHours{overrides: o}
}

// Classify는 심볼 형식으로 자산 구분을 추정합니다
func (h *SessionHours) Classify(symbol string) AssetClass {
	s := strings.ToUpper(symbol)
	if h != nil {
		if class, ok := h.overrides[s]; ok {
			return class
		}
	}

	switch {
	case strings.HasPrefix(s, "FRX"):
		return Forex
	case strings.HasPrefix(s, "CRY"):
		return Crypto
	case strings.HasPrefix(s, "R_") || strings.HasPrefix(s, "1HZ"):
		return Synthetic
	}

	for _, q := range cryptoQuotes {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return Crypto
		}
	}

	if len(s) == 6 && currencies[s[:3]] && currencies[s[3:]] {
		return Forex
	}
	return Stock
}

// IsOpen은 주어진 시각에 심볼의 시장이 열려 있는지 반환합니다
func (h *SessionHours) IsOpen(symbol string, at time.Time) bool {
	return IsSessionOpen(h.Classify(symbol), at)
}

// IsSessionOpen은 자산 구분별 거래 시간을 판단합니다.
// 외환은 일요일 22:00부터 금요일 22:00(UTC)까지, 주식은 평일 14:30~21:00(UTC)입니다.
func IsSessionOpen(class AssetClass, at time.Time) bool {
	at = at.UTC()

	switch class {
	case Forex:
		switch at.Weekday() {
		case time.Saturday:
			return false
		case time.Sunday:
			return at.Hour() >= forexHour
		case time.Friday:
			return at.Hour() < forexHour
		}
		return true

	case Stock:
		if at.Weekday() == time.Saturday || at.Weekday() == time.Sunday {
			return false
		}
		sinceMidnight := at.Sub(at.Truncate(24 * time.Hour))
		return sinceMidnight >= stockOpen && sinceMidnight < stockClose
	}

	return true
}
