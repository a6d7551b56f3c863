package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// GetAccount는 선물 계정 정보를 조회합니다
func (c *Client) GetAccount(ctx context.Context) (*domain.Account, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return nil, fmt.Errorf("계정 조회 실패: %w", err)
	}

	var result struct {
		TotalWalletBalance    float64 `json:"totalWalletBalance,string"`
		TotalMarginBalance    float64 `json:"totalMarginBalance,string"`
		TotalInitialMargin    float64 `json:"totalInitialMargin,string"`
		TotalUnrealizedProfit float64 `json:"totalUnrealizedProfit,string"`
		AvailableBalance      float64 `json:"availableBalance,string"`
		Positions             []struct {
			Leverage    float64 `json:"leverage,string"`
			PositionAmt float64 `json:"positionAmt,string"`
		} `json:"positions"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	account := &domain.Account{
		ID:         "futures",
		Balance:    result.TotalWalletBalance,
		Equity:     result.TotalMarginBalance,
		Margin:     result.TotalInitialMargin,
		FreeMargin: result.AvailableBalance,
		Profit:     result.TotalUnrealizedProfit,
		Currency:   "USDT",
		Leverage:   1,
	}
	if account.Margin > 0 {
		account.MarginLevel = account.Equity / account.Margin * 100
	}
	// 보유 포지션 중 가장 높은 레버리지
	for _, p := range result.Positions {
		if p.PositionAmt != 0 && p.Leverage > account.Leverage {
			account.Leverage = p.Leverage
		}
	}

	return account, nil
}

// GetPositions는 현재 열린 포지션을 조회합니다
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var positionsRaw []struct {
		Symbol           string  `json:"symbol"`
		PositionAmt      float64 `json:"positionAmt,string"`
		EntryPrice       float64 `json:"entryPrice,string"`
		MarkPrice        float64 `json:"markPrice,string"`
		UnrealizedProfit float64 `json:"unRealizedProfit,string"`
		UpdateTime       int64   `json:"updateTime"`
	}
	if err := json.Unmarshal(resp, &positionsRaw); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 활성 포지션만 필터링 (수량이 0이 아닌 포지션)
	positions := make([]domain.Position, 0, len(positionsRaw))
	for _, p := range positionsRaw {
		if p.PositionAmt == 0 {
			continue
		}
		side := domain.LongPosition
		if p.PositionAmt < 0 {
			side = domain.ShortPosition
		}
		positions = append(positions, domain.Position{
			ID:            p.Symbol, // 단방향 모드에서는 심볼당 포지션 하나
			Symbol:        p.Symbol,
			Side:          side,
			Size:          math.Abs(p.PositionAmt),
			EntryPrice:    p.EntryPrice,
			CurrentPrice:  p.MarkPrice,
			UnrealizedPnL: p.UnrealizedProfit,
			OpenTime:      time.UnixMilli(p.UpdateTime),
		})
	}

	return positions, nil
}

// rawOrder는 주문 API 응답 형식입니다
type rawOrder struct {
	OrderID       int64   `json:"orderId"`
	Symbol        string  `json:"symbol"`
	Status        string  `json:"status"`
	ClientOrderID string  `json:"clientOrderId"`
	Price         float64 `json:"price,string"`
	AvgPrice      float64 `json:"avgPrice,string"`
	OrigQty       float64 `json:"origQty,string"`
	ExecutedQty   float64 `json:"executedQty,string"`
	StopPrice     float64 `json:"stopPrice,string"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Time          int64   `json:"time"`
	UpdateTime    int64   `json:"updateTime"`
}

func (o rawOrder) toDomain() domain.Order {
	created := o.Time
	if created == 0 {
		created = o.UpdateTime
	}
	return domain.Order{
		ID:            strconv.FormatInt(o.OrderID, 10),
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          domain.OrderSide(o.Side),
		Type:          orderTypeFromBinance(o.Type),
		Size:          o.OrigQty,
		Price:         o.Price,
		StopPrice:     o.StopPrice,
		Status:        orderStatusFromBinance(o.Status),
		FilledSize:    o.ExecutedQty,
		AvgFillPrice:  o.AvgPrice,
		CreateTime:    time.UnixMilli(created),
		UpdateTime:    time.UnixMilli(o.UpdateTime),
	}
}

// GetOrders는 현재 열린 주문 목록을 조회합니다
func (c *Client) GetOrders(ctx context.Context) ([]domain.Order, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", nil, true)
	if err != nil {
		return nil, fmt.Errorf("열린 주문 조회 실패: %w", err)
	}

	var ordersRaw []rawOrder
	if err := json.Unmarshal(resp, &ordersRaw); err != nil {
		return nil, fmt.Errorf("주문 데이터 파싱 실패: %w", err)
	}

	orders := make([]domain.Order, len(ordersRaw))
	for i, o := range ordersRaw {
		orders[i] = o.toDomain()
	}
	return orders, nil
}

// GetTrades는 [from, to] 구간의 체결 내역을 조회합니다.
// userTrades는 심볼이 필수이므로 감시 심볼과 보유 포지션 심볼을 순회합니다.
func (c *Client) GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error) {
	if to.Before(from) {
		return nil, &domain.ValidationError{Field: "to", Err: fmt.Errorf("종료 시각이 시작 시각보다 앞섭니다")}
	}

	symbols := make(map[string]struct{})
	for _, s := range c.watchSymbols {
		symbols[s] = struct{}{}
	}
	positions, err := c.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		symbols[p.Symbol] = struct{}{}
	}

	var (
		trades []domain.Trade
		errs   []error
	)
	for symbol := range symbols {
		st, err := c.getSymbolTrades(ctx, symbol, from, to)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		trades = append(trades, st...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.Slice(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })
	return trades, nil
}

func (c *Client) getSymbolTrades(ctx context.Context, symbol string, from, to time.Time) ([]domain.Trade, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	params.Add("endTime", strconv.FormatInt(to.UnixMilli(), 10))

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/userTrades", params, true)
	if err != nil {
		return nil, fmt.Errorf("%s 체결 내역 조회 실패: %w", symbol, err)
	}

	var raw []struct {
		ID         int64   `json:"id"`
		OrderID    int64   `json:"orderId"`
		Symbol     string  `json:"symbol"`
		Side       string  `json:"side"`
		Qty        float64 `json:"qty,string"`
		Price      float64 `json:"price,string"`
		Commission float64 `json:"commission,string"`
		Time       int64   `json:"time"`
	}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("체결 데이터 파싱 실패: %w", err)
	}

	trades := make([]domain.Trade, len(raw))
	for i, t := range raw {
		trades[i] = domain.Trade{
			ID:         strconv.FormatInt(t.ID, 10),
			OrderID:    strconv.FormatInt(t.OrderID, 10),
			Symbol:     t.Symbol,
			Side:       domain.OrderSide(t.Side),
			Size:       t.Qty,
			Price:      t.Price,
			Commission: t.Commission,
			Time:       time.UnixMilli(t.Time),
		}
	}
	return trades, nil
}
