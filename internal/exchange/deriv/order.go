package deriv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/metrics"
)

// contractType은 주문 방향을 상승/하락 계약으로 변환합니다
func contractType(side domain.OrderSide) string {
	if side == domain.Sell {
		return "PUT"
	}
	return "CALL"
}

// PlaceOrder는 계약을 매수합니다. Size는 계정 통화 기준 stake입니다.
// 시장가만 지원하며 손절/익절은 설정할 수 없어 ProtectionErr로 보고됩니다.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if req.Type == "" {
		req.Type = domain.Market
	}
	if req.Type != domain.Market {
		return nil, domain.NewOperationError(venueName, "PlaceOrder",
			fmt.Errorf("%w: %s 주문 유형", domain.ErrUnsupported, req.Type))
	}
	if err := exchange.ValidateOrder(c, req); err != nil {
		return nil, err
	}
	if err := c.requireConnected("PlaceOrder"); err != nil {
		return nil, err
	}

	spec := c.contract
	frame, err := c.call(ctx, "buy", map[string]any{
		"buy":   1,
		"price": req.Size,
		"parameters": map[string]any{
			"amount":        req.Size,
			"basis":         spec.Basis,
			"contract_type": contractType(req.Side),
			"currency":      c.accountCurrency(),
			"duration":      spec.Duration,
			"duration_unit": spec.DurationUnit,
			"symbol":        FormatSymbol(req.Symbol),
		},
	})
	if err != nil {
		return nil, domain.NewOperationError(venueName, "PlaceOrder", err)
	}

	var buy struct {
		ContractID   int64   `json:"contract_id"`
		BuyPrice     float64 `json:"buy_price"`
		PurchaseTime int64   `json:"purchase_time"`
	}
	if err := decodeField(frame, "buy", &buy); err != nil {
		return nil, err
	}

	created := time.Unix(buy.PurchaseTime, 0)
	order := domain.Order{
		ID:            strconv.FormatInt(buy.ContractID, 10),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          domain.Market,
		Size:          req.Size,
		Price:         buy.BuyPrice,
		Status:        domain.StatusFilled,
		FilledSize:    req.Size,
		AvgFillPrice:  buy.BuyPrice,
		CreateTime:    created,
		UpdateTime:    created,
	}

	result := &domain.OrderResult{Order: order}
	result.ProtectionErr = c.protectionUnsupported(order.ID, req)

	c.log.Info().
		Str("symbol", req.Symbol).
		Str("side", string(req.Side)).
		Str("contract", order.ID).
		Float64("stake", req.Size).
		Msg("계약 매수 완료")
	return result, nil
}

// protectionUnsupported는 요청된 손절/익절마다 ProtectionError를 만듭니다
func (c *Client) protectionUnsupported(orderID string, req domain.OrderRequest) error {
	var errs []error
	for _, p := range []struct {
		kind  string
		price float64
	}{
		{"stop_loss", req.StopLoss},
		{"take_profit", req.TakeProfit},
	} {
		if p.price <= 0 {
			continue
		}
		metrics.ProtectionFailures.WithLabelValues(venueName, p.kind).Inc()
		c.log.Warn().Str("contract", orderID).Str("kind", p.kind).Msg("계약 주문에는 보호 주문을 설정할 수 없습니다")
		errs = append(errs, &domain.ProtectionError{
			OrderID: orderID,
			Kind:    p.kind,
			Err:     fmt.Errorf("%w: 계약형 상품의 보호 주문", domain.ErrUnsupported),
		})
	}
	return errors.Join(errs...)
}

// ModifyOrder는 지원하지 않습니다
func (c *Client) ModifyOrder(ctx context.Context, req domain.ModifyRequest) (*domain.OrderResult, error) {
	return nil, domain.NewOperationError(venueName, "ModifyOrder",
		fmt.Errorf("%w: 계약은 변경할 수 없습니다", domain.ErrUnsupported))
}

// CancelOrder는 지원하지 않습니다
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return domain.NewOperationError(venueName, "CancelOrder",
		fmt.Errorf("%w: 계약은 취소할 수 없습니다", domain.ErrUnsupported))
}

// ClosePosition은 계약을 시장가로 매도합니다. 부분 청산은 지원하지 않으므로 size는 0이어야 합니다
func (c *Client) ClosePosition(ctx context.Context, positionID string, size float64) error {
	if size != 0 {
		return domain.NewOperationError(venueName, "ClosePosition",
			fmt.Errorf("%w: 부분 청산", domain.ErrUnsupported))
	}

	contractID, err := strconv.ParseInt(positionID, 10, 64)
	if err != nil {
		return &domain.ValidationError{Field: "positionID", Err: fmt.Errorf("계약 ID가 아닙니다: %q", positionID)}
	}
	if err := c.requireConnected("ClosePosition"); err != nil {
		return err
	}

	frame, err := c.call(ctx, "sell", map[string]any{"sell": contractID, "price": 0})
	if err != nil {
		return domain.NewOperationError(venueName, "ClosePosition", err)
	}

	var sold struct {
		SoldFor       float64 `json:"sold_for"`
		TransactionID int64   `json:"transaction_id"`
	}
	if err := decodeField(frame, "sell", &sold); err != nil {
		return err
	}

	c.log.Info().Str("contract", positionID).Float64("soldFor", sold.SoldFor).Msg("계약 매도 완료")
	return nil
}
