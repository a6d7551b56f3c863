package deriv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// 기본 주문 금액 한도 (계정 통화 기준 stake)
const (
	defaultMinStake    = 1.0
	defaultMaxStake    = 50000.0
	defaultGranularity = 300
)

// 일반 외환 표기 -> Deriv 심볼
var forexSymbols = map[string]string{
	"EURUSD": "frxEURUSD",
	"GBPUSD": "frxGBPUSD",
	"USDJPY": "frxUSDJPY",
	"USDCHF": "frxUSDCHF",
	"AUDUSD": "frxAUDUSD",
	"USDCAD": "frxUSDCAD",
	"NZDUSD": "frxNZDUSD",
}

// Deriv가 지원하는 캔들 간격(초)
var granularities = map[int]bool{
	60: true, 120: true, 180: true, 300: true, 600: true, 900: true,
	1800: true, 3600: true, 7200: true, 14400: true, 28800: true, 86400: true,
}

// FormatSymbol은 일반 심볼을 Deriv 심볼로 변환합니다. 매핑이 없으면 그대로 반환합니다
func FormatSymbol(symbol string) string {
	if s, ok := forexSymbols[strings.ToUpper(symbol)]; ok {
		return s
	}
	return symbol
}

// granularity는 캔들 간격을 초 단위로 변환합니다
func granularity(interval domain.TimeInterval) int {
	d, ok := interval.Duration()
	if !ok {
		return defaultGranularity
	}
	secs := int(d / time.Second)
	if !granularities[secs] {
		return defaultGranularity
	}
	return secs
}

// ValidateSymbol은 심볼 카탈로그 또는 활성 심볼 목록으로 검증합니다
func (c *Client) ValidateSymbol(symbol string) bool {
	sym := FormatSymbol(symbol)
	if sym == "" {
		return false
	}
	if len(c.limits) > 0 {
		_, ok := c.limits[sym]
		return ok
	}

	c.acctMu.RLock()
	defer c.acctMu.RUnlock()
	return c.symbols[sym]
}

// MinSize는 최소 주문 금액을 반환합니다
func (c *Client) MinSize(symbol string) float64 {
	if l, ok := c.limits[FormatSymbol(symbol)]; ok && l.MinSize > 0 {
		return l.MinSize
	}
	return defaultMinStake
}

// MaxSize는 최대 주문 금액을 반환합니다
func (c *Client) MaxSize(symbol string) float64 {
	if l, ok := c.limits[FormatSymbol(symbol)]; ok && l.MaxSize > 0 {
		return l.MaxSize
	}
	return defaultMaxStake
}

// GetSymbols는 현재 거래 가능한 심볼 목록을 반환하고 캐시를 갱신합니다
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	if err := c.requireConnected("GetSymbols"); err != nil {
		return nil, err
	}

	frame, err := c.call(ctx, "active_symbols", map[string]any{
		"active_symbols": "brief",
		"product_type":   "basic",
	})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetSymbols", err)
	}

	var raw []struct {
		Symbol         string `json:"symbol"`
		ExchangeIsOpen int    `json:"exchange_is_open"`
	}
	if err := decodeField(frame, "active_symbols", &raw); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(raw))
	var open []string
	for _, s := range raw {
		known[s.Symbol] = true
		if s.ExchangeIsOpen == 1 {
			open = append(open, s.Symbol)
		}
	}
	sort.Strings(open)

	c.acctMu.Lock()
	c.symbols = known
	c.acctMu.Unlock()

	return open, nil
}

// GetMarketData는 최신 틱을 조회합니다
func (c *Client) GetMarketData(ctx context.Context, symbol string) (*domain.Tick, error) {
	if err := c.requireConnected("GetMarketData"); err != nil {
		return nil, err
	}

	frame, err := c.call(ctx, "ticks_history", map[string]any{
		"ticks_history": FormatSymbol(symbol),
		"count":         1,
		"end":           "latest",
		"style":         "ticks",
	})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetMarketData", err)
	}

	var history struct {
		Prices []float64 `json:"prices"`
		Times  []int64   `json:"times"`
	}
	if err := decodeField(frame, "history", &history); err != nil {
		return nil, err
	}
	if len(history.Prices) == 0 || len(history.Times) != len(history.Prices) {
		return nil, fmt.Errorf("%w: %s 틱 데이터가 없습니다", domain.ErrInsufficientData, symbol)
	}

	last := len(history.Prices) - 1
	price := history.Prices[last]
	return &domain.Tick{
		Symbol: symbol,
		Bid:    price,
		Ask:    price,
		Last:   price,
		Time:   time.Unix(history.Times[last], 0),
	}, nil
}

// GetKlines는 캔들 데이터를 조회합니다. Deriv 캔들에는 거래량이 없습니다
func (c *Client) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	if err := c.requireConnected("GetKlines"); err != nil {
		return nil, err
	}

	gran := granularity(interval)
	frame, err := c.call(ctx, "ticks_history", map[string]any{
		"ticks_history":     FormatSymbol(symbol),
		"adjust_start_time": 1,
		"count":             limit,
		"end":               "latest",
		"granularity":       gran,
		"style":             "candles",
	})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetKlines", err)
	}

	var raw []struct {
		Epoch int64   `json:"epoch"`
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	}
	if err := decodeField(frame, "candles", &raw); err != nil {
		return nil, err
	}

	span := time.Duration(gran) * time.Second
	candles := make(domain.CandleList, 0, len(raw))
	for _, k := range raw {
		open := time.Unix(k.Epoch, 0)
		candles = append(candles, domain.Candle{
			OpenTime:  open,
			CloseTime: open.Add(span - time.Millisecond),
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Symbol:    symbol,
			Interval:  interval,
		})
	}
	return candles, nil
}
