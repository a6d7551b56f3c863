package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assist-by/conduit/internal/domain"
)

const (
	defaultMinSize = 0.001
	defaultMaxSize = 1e6
)

var quoteAssets = []string{"USDT", "BTC", "ETH"}

// symbolRule은 exchangeInfo에서 읽은 심볼 거래 규칙입니다
type symbolRule struct {
	status      string
	minQty      float64
	maxQty      float64
	stepSize    float64
	tickSize    float64
	minNotional float64
}

// FormatSymbol은 "btc/usdt", "BTC-USDT", "btc" 같은 입력을 BTCUSDT 형식으로 변환합니다
func FormatSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.NewReplacer("/", "", "-", "").Replace(s)
	for _, q := range quoteAssets {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s
		}
	}
	return s + "USDT"
}

// ValidateSymbol은 거래 가능한 심볼인지 확인합니다
func (c *Client) ValidateSymbol(symbol string) bool {
	symbol = FormatSymbol(symbol)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.rules) > 0 {
		rule, ok := c.rules[symbol]
		return ok && rule.status == "TRADING"
	}

	// 규칙을 불러오기 전에는 견적 자산 접미사로 판단
	for _, q := range quoteAssets {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return true
		}
	}
	return false
}

// MinSize는 심볼의 최소 주문 수량을 반환합니다
func (c *Client) MinSize(symbol string) float64 {
	if rule, ok := c.rule(symbol); ok && rule.minQty > 0 {
		return rule.minQty
	}
	return defaultMinSize
}

// MaxSize는 심볼의 최대 주문 수량을 반환합니다
func (c *Client) MaxSize(symbol string) float64 {
	if rule, ok := c.rule(symbol); ok && rule.maxQty > 0 {
		return rule.maxQty
	}
	return defaultMaxSize
}

func (c *Client) rule(symbol string) (symbolRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rule, ok := c.rules[FormatSymbol(symbol)]
	return rule, ok
}

// formatQuantity는 수량을 심볼의 수량 단위로 내림한 문자열로 변환합니다.
// 올림하면 잔고나 포지션 수량을 넘을 수 있습니다.
func (c *Client) formatQuantity(symbol string, v float64) string {
	rule, _ := c.rule(symbol)
	return floorStep(v, rule.stepSize)
}

// formatPrice는 가격을 심볼의 가격 단위에 맞춘 문자열로 변환합니다
func (c *Client) formatPrice(symbol string, v float64) string {
	rule, _ := c.rule(symbol)
	return formatStep(v, rule.tickSize)
}

func formatStep(v, step float64) string {
	d := decimal.NewFromFloat(v)
	if step > 0 {
		return d.Round(-decimal.NewFromFloat(step).Exponent()).String()
	}
	return d.Round(8).String()
}

func floorStep(v, step float64) string {
	d := decimal.NewFromFloat(v)
	if step > 0 {
		s := decimal.NewFromFloat(step)
		return d.Div(s).Floor().Mul(s).String()
	}
	return d.Truncate(8).String()
}

// loadExchangeInfo는 거래소 정보를 조회하고 심볼 규칙을 갱신합니다
func (c *Client) loadExchangeInfo(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return nil, fmt.Errorf("거래소 정보 조회 실패: %w", err)
	}

	var info struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Status  string `json:"status"`
			Filters []struct {
				FilterType string `json:"filterType"`
				MinQty     string `json:"minQty,omitempty"`
				MaxQty     string `json:"maxQty,omitempty"`
				StepSize   string `json:"stepSize,omitempty"`
				TickSize   string `json:"tickSize,omitempty"`
				Notional   string `json:"notional,omitempty"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &info); err != nil {
		return nil, fmt.Errorf("거래소 정보 파싱 실패: %w", err)
	}

	rules := make(map[string]symbolRule, len(info.Symbols))
	var trading []string
	for _, s := range info.Symbols {
		rule := symbolRule{status: s.Status}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE": // 수량 단위 필터
				rule.minQty = parseFloat(f.MinQty)
				rule.maxQty = parseFloat(f.MaxQty)
				rule.stepSize = parseFloat(f.StepSize)
			case "PRICE_FILTER": // 가격 단위 필터
				rule.tickSize = parseFloat(f.TickSize)
			case "MIN_NOTIONAL": // 최소 주문 가치 필터
				rule.minNotional = parseFloat(f.Notional)
			}
		}
		rules[s.Symbol] = rule
		if s.Status == "TRADING" {
			trading = append(trading, s.Symbol)
		}
	}

	c.mu.Lock()
	c.rules = rules
	c.mu.Unlock()

	return trading, nil
}

// GetSymbols는 거래 가능한 심볼 목록을 조회합니다
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	return c.loadExchangeInfo(ctx)
}

// GetMarketData는 최우선 호가를 조회합니다
func (c *Client) GetMarketData(ctx context.Context, symbol string) (*domain.Tick, error) {
	params := url.Values{}
	params.Add("symbol", FormatSymbol(symbol))

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/ticker/bookTicker", params, false)
	if err != nil {
		return nil, fmt.Errorf("호가 조회 실패: %w", err)
	}

	var ticker struct {
		Symbol   string  `json:"symbol"`
		BidPrice float64 `json:"bidPrice,string"`
		AskPrice float64 `json:"askPrice,string"`
		BidQty   float64 `json:"bidQty,string"`
		AskQty   float64 `json:"askQty,string"`
		Time     int64   `json:"time"`
	}
	if err := json.Unmarshal(resp, &ticker); err != nil {
		return nil, fmt.Errorf("호가 데이터 파싱 실패: %w", err)
	}

	mid := decimal.NewFromFloat(ticker.BidPrice).
		Add(decimal.NewFromFloat(ticker.AskPrice)).
		Div(decimal.NewFromInt(2))

	return &domain.Tick{
		Symbol: ticker.Symbol,
		Bid:    ticker.BidPrice,
		Ask:    ticker.AskPrice,
		Last:   mid.InexactFloat64(),
		Volume: ticker.BidQty + ticker.AskQty,
		Time:   time.UnixMilli(ticker.Time),
	}, nil
}

// GetKlines는 캔들 데이터를 조회합니다
func (c *Client) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	symbol = FormatSymbol(symbol)
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("interval", string(interval))
	params.Add("limit", strconv.Itoa(limit))

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/klines", params, false)
	if err != nil {
		return nil, fmt.Errorf("캔들 조회 실패: %w", err)
	}

	var rawCandles [][]any
	if err := json.Unmarshal(resp, &rawCandles); err != nil {
		return nil, fmt.Errorf("캔들 데이터 파싱 실패: %w", err)
	}

	candles := make(domain.CandleList, 0, len(rawCandles))
	for i, raw := range rawCandles {
		candle, err := parseKline(raw)
		if err != nil {
			return nil, fmt.Errorf("캔들[%d] 파싱 실패: %w", i, err)
		}
		candle.Symbol = symbol
		candle.Interval = interval
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseKline은 [openTime, open, high, low, close, volume, closeTime, ...] 배열을 변환합니다
func parseKline(raw []any) (domain.Candle, error) {
	if len(raw) < 7 {
		return domain.Candle{}, fmt.Errorf("필드 수 부족: %d", len(raw))
	}

	openTime, ok1 := raw[0].(float64)
	closeTime, ok2 := raw[6].(float64)
	if !ok1 || !ok2 {
		return domain.Candle{}, fmt.Errorf("시간 필드 형식 오류")
	}

	var values [5]float64
	for i := range values {
		s, ok := raw[i+1].(string)
		if !ok {
			return domain.Candle{}, fmt.Errorf("가격 필드 %d 형식 오류", i+1)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, err
		}
		values[i] = v
	}

	return domain.Candle{
		OpenTime:  time.UnixMilli(int64(openTime)),
		CloseTime: time.UnixMilli(int64(closeTime)),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
