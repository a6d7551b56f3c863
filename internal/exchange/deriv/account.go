package deriv

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/assist-by/conduit/internal/domain"
)

// contract_type -> 포지션 방향
func sideFromContract(contractType string) domain.PositionSide {
	switch contractType {
	case "PUT", "PUTE", "MULTDOWN":
		return domain.ShortPosition
	default:
		return domain.LongPosition
	}
}

// GetAccount는 계정 잔고를 조회합니다. 옵션 계약은 증거금이 없으므로 잔고가 곧 가용 자산입니다
func (c *Client) GetAccount(ctx context.Context) (*domain.Account, error) {
	if err := c.requireConnected("GetAccount"); err != nil {
		return nil, err
	}

	frame, err := c.call(ctx, "balance", map[string]any{"balance": 1})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetAccount", err)
	}

	var bal struct {
		Balance  float64 `json:"balance"`
		Currency string  `json:"currency"`
		LoginID  string  `json:"loginid"`
	}
	if err := decodeField(frame, "balance", &bal); err != nil {
		return nil, err
	}

	id := bal.LoginID
	if id == "" {
		id = c.account()
	}

	return &domain.Account{
		ID:         id,
		Balance:    bal.Balance,
		Equity:     bal.Balance,
		FreeMargin: bal.Balance,
		Currency:   bal.Currency,
		Leverage:   1,
	}, nil
}

type portfolioContract struct {
	ContractID   int64   `json:"contract_id"`
	ContractType string  `json:"contract_type"`
	Symbol       string  `json:"symbol"`
	BuyPrice     float64 `json:"buy_price"`
	PurchaseTime int64   `json:"purchase_time"`
}

// GetPositions는 보유 중인 계약을 포지션으로 반환합니다. 현재가는 계약별로 조회합니다
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	if err := c.requireConnected("GetPositions"); err != nil {
		return nil, err
	}

	frame, err := c.call(ctx, "portfolio", map[string]any{"portfolio": 1})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetPositions", err)
	}

	var portfolio struct {
		Contracts []portfolioContract `json:"contracts"`
	}
	if err := decodeField(frame, "portfolio", &portfolio); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(portfolio.Contracts))
	for _, pc := range portfolio.Contracts {
		pos := domain.Position{
			ID:         strconv.FormatInt(pc.ContractID, 10),
			Symbol:     pc.Symbol,
			Side:       sideFromContract(pc.ContractType),
			Size:       pc.BuyPrice,
			EntryPrice: pc.BuyPrice,
			OpenTime:   time.Unix(pc.PurchaseTime, 0),
		}

		if err := c.fillContractState(ctx, &pos, pc.ContractID); err != nil {
			return nil, domain.NewOperationError(venueName, "GetPositions", err)
		}
		positions = append(positions, pos)
	}

	return positions, nil
}

// fillContractState는 진행 중인 계약의 현재 가치와 손익을 채웁니다
func (c *Client) fillContractState(ctx context.Context, pos *domain.Position, contractID int64) error {
	frame, err := c.call(ctx, "proposal_open_contract", map[string]any{
		"proposal_open_contract": 1,
		"contract_id":            contractID,
	})
	if err != nil {
		return err
	}

	var poc struct {
		BidPrice    float64 `json:"bid_price"`
		CurrentSpot float64 `json:"current_spot"`
		EntrySpot   float64 `json:"entry_spot"`
		Profit      float64 `json:"profit"`
	}
	if err := decodeField(frame, "proposal_open_contract", &poc); err != nil {
		return err
	}

	pos.CurrentPrice = poc.CurrentSpot
	if poc.EntrySpot > 0 {
		pos.EntryPrice = poc.EntrySpot
	}
	pos.UnrealizedPnL = poc.Profit
	return nil
}

// GetOrders는 대기 주문 목록을 반환합니다. 계약은 즉시 체결되므로 항상 비어 있습니다
func (c *Client) GetOrders(ctx context.Context) ([]domain.Order, error) {
	if err := c.requireConnected("GetOrders"); err != nil {
		return nil, err
	}
	return []domain.Order{}, nil
}

// GetTrades는 기간 내 정산된 계약을 체결 내역으로 반환합니다
func (c *Client) GetTrades(ctx context.Context, from, to time.Time) ([]domain.Trade, error) {
	if err := c.requireConnected("GetTrades"); err != nil {
		return nil, err
	}

	req := map[string]any{
		"profit_table": 1,
		"description":  1,
		"sort":         "ASC",
		"limit":        500,
	}
	if !from.IsZero() {
		req["date_from"] = from.Unix()
	}
	if !to.IsZero() {
		req["date_to"] = to.Unix()
	}

	frame, err := c.call(ctx, "profit_table", req)
	if err != nil {
		return nil, domain.NewOperationError(venueName, "GetTrades", err)
	}

	var table struct {
		Transactions []struct {
			ContractID    int64   `json:"contract_id"`
			TransactionID int64   `json:"transaction_id"`
			Symbol        string  `json:"underlying_symbol"`
			BuyPrice      float64 `json:"buy_price"`
			SellPrice     float64 `json:"sell_price"`
			SellTime      int64   `json:"sell_time"`
		} `json:"transactions"`
	}
	if err := decodeField(frame, "profit_table", &table); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(table.Transactions))
	for _, t := range table.Transactions {
		trades = append(trades, domain.Trade{
			ID:      strconv.FormatInt(t.TransactionID, 10),
			OrderID: strconv.FormatInt(t.ContractID, 10),
			Symbol:  t.Symbol,
			Side:    domain.Sell,
			Size:    t.BuyPrice,
			Price:   t.SellPrice,
			Time:    time.Unix(t.SellTime, 0),
		})
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })

	return trades, nil
}
