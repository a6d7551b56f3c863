package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/metrics"
)

// orderStatusFromBinance는 바이낸스 주문 상태를 도메인 상태로 변환합니다
func orderStatusFromBinance(s string) domain.OrderStatus {
	switch s {
	case "NEW":
		return domain.StatusPending
	case "PARTIALLY_FILLED":
		return domain.StatusPartiallyFilled
	case "FILLED":
		return domain.StatusFilled
	case "CANCELED", "EXPIRED", "EXPIRED_IN_MATCH":
		return domain.StatusCancelled
	case "REJECTED":
		return domain.StatusRejected
	default:
		return domain.StatusPending
	}
}

// 도메인 주문 유형 -> 바이낸스 주문 유형
var binanceOrderTypes = map[domain.OrderType]string{
	domain.Market:    "MARKET",
	domain.Limit:     "LIMIT",
	domain.Stop:      "STOP_MARKET",
	domain.StopLimit: "STOP",
}

func orderTypeFromBinance(t string) domain.OrderType {
	switch t {
	case "LIMIT":
		return domain.Limit
	case "STOP_MARKET", "TAKE_PROFIT_MARKET":
		return domain.Stop
	case "STOP", "TAKE_PROFIT":
		return domain.StopLimit
	default:
		return domain.Market
	}
}

// orderParams는 주문 요청을 API 파라미터로 변환합니다
func (c *Client) orderParams(req domain.OrderRequest) url.Values {
	params := url.Values{}
	params.Add("symbol", req.Symbol)
	params.Add("side", string(req.Side))
	params.Add("type", binanceOrderTypes[req.Type])
	params.Add("quantity", c.formatQuantity(req.Symbol, req.Size))

	if req.Type.NeedsPrice() {
		params.Add("price", c.formatPrice(req.Symbol, req.Price))
		params.Add("timeInForce", "GTC")
	}
	if req.Type.NeedsStopPrice() {
		params.Add("stopPrice", c.formatPrice(req.Symbol, req.StopPrice))
	}

	// 재시도 시 중복 주문을 막기 위해 클라이언트 주문 ID를 항상 지정
	clientID := req.ClientOrderID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	params.Add("newClientOrderId", clientID)
	return params
}

// submitOrder는 주문을 전송하고 응답을 변환합니다
func (c *Client) submitOrder(ctx context.Context, params url.Values) (*domain.Order, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return nil, err
	}

	var raw rawOrder
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}
	order := raw.toDomain()
	return &order, nil
}

// 같은 newClientOrderId로 이미 주문이 접수된 경우의 오류 코드
const codeDuplicateClientOrderID = -4116

func isDuplicateClientOrderID(err error) bool {
	var brokerErr *domain.BrokerError
	return errors.As(err, &brokerErr) && brokerErr.Code == codeDuplicateClientOrderID
}

// queryOrder는 클라이언트 주문 ID로 주문을 조회합니다
func (c *Client) queryOrder(ctx context.Context, symbol, clientOrderID string) (*domain.Order, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("origClientOrderId", clientOrderID)

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/order", params, true)
	if err != nil {
		return nil, fmt.Errorf("주문 조회 실패: %w", err)
	}

	var raw rawOrder
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}
	order := raw.toDomain()
	return &order, nil
}

// PlaceOrder는 새로운 주문을 생성합니다.
// 주문이 접수되면 손절/익절 주문을 별도의 조건부 주문으로 설정하며,
// 이 단계의 실패는 OrderResult.ProtectionErr로 전달됩니다.
// 응답을 잃은 뒤 재시도가 중복 ID로 거부되면 접수된 주문을 조회해 이어서 처리합니다.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	req.Symbol = FormatSymbol(req.Symbol)
	if err := exchange.ValidateOrder(c, req); err != nil {
		return nil, domain.NewOperationError(venueName, "PlaceOrder", err)
	}

	params := c.orderParams(req)
	order, err := c.submitOrder(ctx, params)
	if err != nil && isDuplicateClientOrderID(err) {
		clientID := params.Get("newClientOrderId")
		c.log.Warn().Err(err).Str("clientOrderID", clientID).Msg("중복 주문 ID, 기존 주문 조회")
		order, err = c.queryOrder(ctx, req.Symbol, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("주문 실행 실패 [심볼: %s, 타입: %s, 수량: %v]: %w",
			req.Symbol, req.Type, req.Size, err)
	}

	c.log.Info().
		Str("symbol", order.Symbol).
		Str("orderID", order.ID).
		Str("status", string(order.Status)).
		Msg("주문 접수")

	result := &domain.OrderResult{Order: *order}
	if order.Status == domain.StatusRejected {
		return result, nil
	}

	result.ProtectionErr = c.placeProtection(ctx, req, order.ID)
	return result, nil
}

// placeProtection은 손절(STOP_MARKET)과 익절(TAKE_PROFIT_MARKET) 주문을 설정합니다
func (c *Client) placeProtection(ctx context.Context, req domain.OrderRequest, orderID string) error {
	type protection struct {
		kind      string
		orderType string
		price     float64
	}
	var errs []error

	for _, p := range []protection{
		{"stop_loss", "STOP_MARKET", req.StopLoss},
		{"take_profit", "TAKE_PROFIT_MARKET", req.TakeProfit},
	} {
		if p.price <= 0 {
			continue
		}

		params := url.Values{}
		params.Add("symbol", req.Symbol)
		params.Add("side", string(req.Side.Opposite()))
		params.Add("type", p.orderType)
		params.Add("quantity", c.formatQuantity(req.Symbol, req.Size))
		params.Add("stopPrice", c.formatPrice(req.Symbol, p.price))
		params.Add("reduceOnly", "true")
		params.Add("newClientOrderId", uuid.NewString())

		if _, err := c.submitOrder(ctx, params); err != nil {
			metrics.ProtectionFailures.WithLabelValues(venueName, p.kind).Inc()
			c.log.Error().Err(err).
				Str("symbol", req.Symbol).
				Str("orderID", orderID).
				Str("kind", p.kind).
				Msg("보호 주문 설정 실패, 포지션이 보호되지 않습니다")
			errs = append(errs, &domain.ProtectionError{OrderID: orderID, Kind: p.kind, Err: err})
		}
	}

	return errors.Join(errs...)
}

// findOpenOrder는 열린 주문 목록에서 주문을 찾습니다
func (c *Client) findOpenOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orders, err := c.GetOrders(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	order, ok := exchange.FindOrder(orders, orderID)
	if !ok {
		return domain.Order{}, &domain.ValidationError{Field: "orderID", Err: fmt.Errorf("열린 주문이 없습니다: %s", orderID)}
	}
	return order, nil
}

// CancelOrder는 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	order, err := c.findOpenOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("주문 취소 실패: %w", err)
	}
	if err := checkCancellable(order); err != nil {
		return fmt.Errorf("주문 취소 실패: %w", err)
	}
	return c.cancel(ctx, order.Symbol, order.ID)
}

// checkCancellable은 주문이 취소 가능한 상태인지 확인합니다
func checkCancellable(order domain.Order) error {
	if !order.Status.CanTransition(domain.StatusCancelled) {
		return &domain.ValidationError{Field: "status", Err: fmt.Errorf("%s 상태의 주문은 취소할 수 없습니다: %s", order.Status, order.ID)}
	}
	return nil
}

func (c *Client) cancel(ctx context.Context, symbol, orderID string) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("orderId", orderID)

	if _, err := c.doRequest(ctx, http.MethodDelete, "/fapi/v1/order", params, true); err != nil {
		return fmt.Errorf("주문 취소 실패: %w", err)
	}
	return nil
}

// ModifyOrder는 기존 주문을 취소하고 새 주문을 넣습니다.
// 원자적이지 않습니다: 취소와 재주문 사이에는 해당 의도를 보호하는 주문이 없으며,
// 재주문이 실패하면 원 주문은 이미 사라진 상태입니다.
func (c *Client) ModifyOrder(ctx context.Context, req domain.ModifyRequest) (*domain.OrderResult, error) {
	orig, err := c.findOpenOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("주문 변경 실패: %w", err)
	}
	if err := checkCancellable(orig); err != nil {
		return nil, domain.NewOperationError(venueName, "ModifyOrder", err)
	}

	replacement := domain.OrderRequest{
		Symbol:    orig.Symbol,
		Side:      orig.Side,
		Type:      orig.Type,
		Size:      orig.RemainingSize(),
		Price:     orig.Price,
		StopPrice: orig.StopPrice,
	}
	if req.Size > 0 {
		replacement.Size = req.Size
	}
	if req.Price > 0 {
		replacement.Price = req.Price
	}
	if req.StopPrice > 0 {
		replacement.StopPrice = req.StopPrice
	}

	// 취소 전에 검증해서 불필요한 공백 구간을 만들지 않음
	if err := exchange.ValidateOrder(c, replacement); err != nil {
		return nil, domain.NewOperationError(venueName, "ModifyOrder", err)
	}

	if err := c.cancel(ctx, orig.Symbol, orig.ID); err != nil {
		return nil, err
	}

	c.log.Warn().Str("orderID", orig.ID).Msg("주문 취소 완료, 재주문 전까지 주문이 없는 상태입니다")

	order, err := c.submitOrder(ctx, c.orderParams(replacement))
	if err != nil {
		return nil, fmt.Errorf("주문 %s 취소 후 재주문 실패 (원 주문은 이미 취소됨): %w", orig.ID, err)
	}

	return &domain.OrderResult{Order: *order}, nil
}

// ClosePosition은 반대 방향 reduceOnly 시장가 주문으로 포지션을 청산합니다
func (c *Client) ClosePosition(ctx context.Context, positionID string, size float64) error {
	positions, err := c.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("포지션 청산 실패: %w", err)
	}

	// 단방향 모드에서는 포지션 ID가 심볼과 같음
	pos, found := exchange.FindPosition(positions, FormatSymbol(positionID))
	if !found {
		return &domain.ValidationError{Field: "positionID", Err: fmt.Errorf("포지션이 없습니다: %s", positionID)}
	}

	if size <= 0 {
		size = pos.Size
	}
	if size > pos.Size {
		return &domain.ValidationError{Field: "size", Err: fmt.Errorf("청산 수량(%v)이 포지션 수량(%v)보다 큽니다", size, pos.Size)}
	}

	params := url.Values{}
	params.Add("symbol", pos.Symbol)
	params.Add("side", string(pos.Side.CloseSide()))
	params.Add("type", "MARKET")
	params.Add("quantity", c.formatQuantity(pos.Symbol, size))
	params.Add("reduceOnly", "true")
	params.Add("newClientOrderId", uuid.NewString())

	order, err := c.submitOrder(ctx, params)
	if err != nil {
		return fmt.Errorf("포지션 청산 실패: %w", err)
	}
	if order.Status == domain.StatusRejected {
		return &domain.BrokerError{Venue: venueName, Message: "청산 주문이 거부되었습니다: " + order.ID}
	}
	return nil
}
