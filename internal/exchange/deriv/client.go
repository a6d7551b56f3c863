package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/metrics"
	"github.com/assist-by/conduit/internal/tracing"
)

const (
	venueName = "deriv"

	defaultEndpoint = "wss://ws.derivws.com/websockets/v3"
	maxFrameSize    = 5 * 1024 * 1024
	writeWait       = 10 * time.Second
)

// State는 소켓 연결 상태입니다
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthorizing
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var _ exchange.Exchange = (*Client)(nil)

// reply는 req_id로 매칭된 응답 하나입니다
type reply struct {
	frame map[string]json.RawMessage
	err   error
}

// Client는 Deriv 웹소켓 API 어댑터입니다.
// 하나의 연결 위에서 여러 요청이 동시에 진행되며 응답은 req_id로 매칭됩니다.
type Client struct {
	appID          string
	token          string
	endpoint       string
	dialer         *websocket.Dialer
	requestTimeout time.Duration
	pingInterval   time.Duration
	contract       ContractSpec
	limits         map[string]domain.SymbolLimits
	log            zerolog.Logger

	state atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn
	done   chan struct{} // readLoop 종료 시 닫힘

	writeMu sync.Mutex
	nextID  atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan reply

	acctMu   sync.RWMutex
	loginID  string
	currency string
	symbols  map[string]bool // active_symbols 캐시
}

// ContractSpec은 주문 시 사용할 계약 조건입니다
type ContractSpec struct {
	Duration     int
	DurationUnit string // s, m, h, d, t
	Basis        string // stake 또는 payout
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithEndpoint는 웹소켓 주소를 설정합니다
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithRequestTimeout은 요청별 응답 대기 시간을 설정합니다
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithPingInterval은 keepalive 주기를 설정합니다. 0이면 비활성화됩니다
func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pingInterval = d
	}
}

// WithContract는 주문 계약 조건을 설정합니다
func WithContract(spec ContractSpec) ClientOption {
	return func(c *Client) {
		c.contract = spec
	}
}

// WithSymbolLimits는 심볼별 최소/최대 주문 금액을 설정합니다
func WithSymbolLimits(limits map[string]domain.SymbolLimits) ClientOption {
	return func(c *Client) {
		c.limits = make(map[string]domain.SymbolLimits, len(limits))
		for sym, l := range limits {
			c.limits[FormatSymbol(sym)] = l
		}
	}
}

// WithDialer는 웹소켓 다이얼러를 교체합니다
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient는 새로운 Deriv 클라이언트를 생성합니다
func NewClient(appID, token string, opts ...ClientOption) *Client {
	c := &Client{
		appID:          appID,
		token:          token,
		endpoint:       defaultEndpoint,
		dialer:         websocket.DefaultDialer,
		requestTimeout: 30 * time.Second,
		pingInterval:   30 * time.Second,
		contract:       ContractSpec{Duration: 5, DurationUnit: "m", Basis: "stake"},
		log:            zerolog.Nop(),
		pending:        make(map[uint64]chan reply),
		symbols:        make(map[string]bool),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name은 거래소 이름을 반환합니다
func (c *Client) Name() string { return venueName }

// Capabilities는 지원 기능을 반환합니다. 계약형 상품이라 주문 변경/취소/부분 청산이 없습니다
func (c *Client) Capabilities() exchange.Capabilities {
	return exchange.Capabilities{}
}

// State는 현재 연결 상태를 반환합니다
func (c *Client) State() State {
	return State(c.state.Load())
}

// PendingCount는 응답을 기다리는 요청 수를 반환합니다
func (c *Client) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// Connect는 소켓을 열고 토큰으로 인증합니다
func (c *Client) Connect(ctx context.Context) error {
	if c.State() == StateConnected {
		return nil
	}
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return fmt.Errorf("%w: 연결이 이미 진행 중입니다", domain.ErrConnection)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: 주소 파싱 실패: %v", domain.ErrConnection, err)
	}
	q := u.Query()
	q.Set("app_id", c.appID)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: 웹소켓 연결 실패: %v", domain.ErrConnection, err)
	}
	conn.SetReadLimit(maxFrameSize)

	done := make(chan struct{})
	c.connMu.Lock()
	c.conn = conn
	c.done = done
	c.connMu.Unlock()
	go c.readLoop(conn, done)

	c.setState(StateAuthorizing)
	if err := c.authorize(ctx); err != nil {
		c.closeConn(conn, done)
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	c.setState(StateConnected)

	if _, err := c.GetSymbols(ctx); err != nil {
		c.log.Warn().Err(err).Msg("활성 심볼 로드 실패")
	}

	if c.pingInterval > 0 {
		go c.keepalive(done)
	}

	c.log.Info().Str("endpoint", c.endpoint).Str("loginid", c.account()).Msg("Deriv 연결 완료")
	return nil
}

func (c *Client) authorize(ctx context.Context) error {
	frame, err := c.call(ctx, "authorize", map[string]any{"authorize": c.token})
	if err != nil {
		return err
	}

	var auth struct {
		LoginID  string  `json:"loginid"`
		Currency string  `json:"currency"`
		Balance  float64 `json:"balance"`
	}
	if err := decodeField(frame, "authorize", &auth); err != nil {
		return err
	}

	c.acctMu.Lock()
	c.loginID = auth.LoginID
	c.currency = auth.Currency
	c.acctMu.Unlock()
	return nil
}

// Disconnect는 소켓을 닫고 대기 중인 요청을 모두 실패 처리합니다
func (c *Client) Disconnect(ctx context.Context) error {
	c.connMu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		c.setState(StateDisconnected)
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.setState(StateDisconnected)
	c.log.Info().Msg("Deriv 연결 종료")
	return nil
}

func (c *Client) closeConn(conn *websocket.Conn, done chan struct{}) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.Close()
	<-done
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) account() string {
	c.acctMu.RLock()
	defer c.acctMu.RUnlock()
	return c.loginID
}

func (c *Client) accountCurrency() string {
	c.acctMu.RLock()
	defer c.acctMu.RUnlock()
	if c.currency == "" {
		return "USD"
	}
	return c.currency
}

// requireConnected는 인증까지 끝난 연결인지 확인합니다
func (c *Client) requireConnected(op string) error {
	if c.State() != StateConnected {
		return domain.NewOperationError(venueName, op, fmt.Errorf("%w: 연결되지 않았습니다", domain.ErrConnection))
	}
	return nil
}

// call은 요청을 보내고 같은 req_id의 응답을 기다립니다
func (c *Client) call(ctx context.Context, op string, req map[string]any) (map[string]json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, venueName, op)
	start := time.Now()

	frame, err := c.roundTrip(ctx, req)

	metrics.RequestDuration.WithLabelValues(venueName, op).Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(venueName, op, metrics.Outcome(err)).Inc()
	tracing.End(span, err)
	return frame, err
}

func (c *Client) roundTrip(ctx context.Context, req map[string]any) (map[string]json.RawMessage, error) {
	c.connMu.Lock()
	conn, done := c.conn, c.done
	c.connMu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("%w: 연결되지 않았습니다", domain.ErrConnection)
	}

	id := c.nextID.Add(1)
	msg := make(map[string]any, len(req)+1)
	for k, v := range req {
		msg[k] = v
	}
	msg["req_id"] = id

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("요청 직렬화 실패: %w", err)
	}

	// 응답이 쓰기보다 먼저 도착할 수 있으므로 슬롯을 먼저 등록합니다
	ch := make(chan reply, 1)
	c.addPending(id, ch)

	if err := c.write(conn, payload); err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("%w: 요청 전송 실패: %v", domain.ErrConnection, err)
	}

	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.frame, r.err
	case <-timer.C:
		if c.removePending(id) {
			return nil, fmt.Errorf("%w: req_id %d (%s)", domain.ErrTimeout, id, c.requestTimeout)
		}
	case <-ctx.Done():
		if c.removePending(id) {
			return nil, ctx.Err()
		}
	case <-done:
		if c.removePending(id) {
			return nil, fmt.Errorf("%w: 응답 전에 연결이 끊어졌습니다", domain.ErrConnection)
		}
	}

	// 슬롯이 이미 해결된 경우 전달된 응답을 사용합니다
	r := <-ch
	return r.frame, r.err
}

func (c *Client) write(conn *websocket.Conn, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) addPending(id uint64, ch chan reply) {
	c.pendingMu.Lock()
	c.pending[id] = ch
	n := len(c.pending)
	c.pendingMu.Unlock()
	metrics.PendingRequests.WithLabelValues(venueName).Set(float64(n))
}

// removePending은 슬롯을 제거하고, 이 호출이 제거했는지 반환합니다
func (c *Client) removePending(id uint64) bool {
	c.pendingMu.Lock()
	_, ok := c.pending[id]
	delete(c.pending, id)
	n := len(c.pending)
	c.pendingMu.Unlock()
	metrics.PendingRequests.WithLabelValues(venueName).Set(float64(n))
	return ok
}

// takePending은 슬롯을 꺼냅니다. 한 슬롯은 정확히 한 번만 꺼낼 수 있습니다
func (c *Client) takePending(id uint64) chan reply {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	n := len(c.pending)
	c.pendingMu.Unlock()
	metrics.PendingRequests.WithLabelValues(venueName).Set(float64(n))
	if !ok {
		return nil
	}
	return ch
}

func (c *Client) failAll(err error) {
	c.pendingMu.Lock()
	slots := c.pending
	c.pending = make(map[uint64]chan reply)
	c.pendingMu.Unlock()
	metrics.PendingRequests.WithLabelValues(venueName).Set(0)

	for _, ch := range slots {
		ch <- reply{err: err}
	}
}

// readLoop는 연결이 끊어질 때까지 프레임을 읽어 대기 중인 요청에 전달합니다
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	if c.pingInterval > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(3 * c.pingInterval))
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		if c.pingInterval > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(3 * c.pingInterval))
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.UnsolicitedFrames.WithLabelValues(venueName).Inc()
		c.log.Debug().Err(err).Msg("프레임 파싱 실패, 무시합니다")
		return
	}

	var id uint64
	raw, ok := frame["req_id"]
	if !ok || json.Unmarshal(raw, &id) != nil {
		metrics.UnsolicitedFrames.WithLabelValues(venueName).Inc()
		c.log.Debug().Str("msg_type", msgType(frame)).Msg("req_id 없는 프레임 무시")
		return
	}

	ch := c.takePending(id)
	if ch == nil {
		// 시간 초과 후 도착한 응답
		metrics.UnsolicitedFrames.WithLabelValues(venueName).Inc()
		c.log.Debug().Uint64("req_id", id).Msg("대기 중이 아닌 응답 무시")
		return
	}

	ch <- reply{frame: frame, err: frameError(frame)}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	c.connMu.Lock()
	intentional := c.conn != conn
	if !intentional {
		c.conn = nil
	}
	c.connMu.Unlock()

	conn.Close()
	c.setState(StateDisconnected)
	c.failAll(fmt.Errorf("%w: 연결이 끊어졌습니다", domain.ErrConnection))

	if !intentional {
		c.log.Error().Err(err).Msg("Deriv 연결 끊김")
	}
}

// keepalive는 주기적으로 ping을 보내 유휴 연결이 끊어지지 않게 합니다
func (c *Client) keepalive(done chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
			_, err := c.call(ctx, "ping", map[string]any{"ping": 1})
			cancel()
			if err != nil {
				c.log.Warn().Err(err).Msg("ping 실패")
			}
		}
	}
}

// frameError는 응답 프레임의 error 필드를 BrokerError로 변환합니다
func frameError(frame map[string]json.RawMessage) error {
	raw, ok := frame["error"]
	if !ok {
		return nil
	}

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return &domain.BrokerError{Venue: venueName, Message: string(raw)}
	}
	return &domain.BrokerError{Venue: venueName, Reason: apiErr.Code, Message: apiErr.Message}
}

func msgType(frame map[string]json.RawMessage) string {
	var t string
	if raw, ok := frame["msg_type"]; ok {
		_ = json.Unmarshal(raw, &t)
	}
	return t
}

// decodeField는 응답 프레임의 특정 필드를 디코딩합니다
func decodeField(frame map[string]json.RawMessage, key string, out any) error {
	raw, ok := frame[key]
	if !ok {
		return fmt.Errorf("응답에 %s 필드가 없습니다", key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s 응답 파싱 실패: %w", key, err)
	}
	return nil
}
