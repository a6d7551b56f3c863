package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/metrics"
	"github.com/assist-by/conduit/internal/tracing"
)

const venueName = "binance"

// 인증 실패로 취급하는 바이낸스 에러 코드
var authErrorCodes = map[int]bool{
	-1022: true, // 서명 불일치
	-2014: true, // API 키 형식 오류
	-2015: true, // 잘못된 API 키, IP 또는 권한
}

var _ exchange.Exchange = (*Client)(nil)

// Client는 바이낸스 선물 API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	baseURL          string
	httpClient       *http.Client
	limiter          *RateLimiter
	retry            RetryConfig
	log              zerolog.Logger
	watchSymbols     []string
	serverTimeOffset int64 // 서버 시간과의 차이를 저장
	rules            map[string]symbolRule
	mu               sync.RWMutex
	connected        atomic.Bool
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = "https://testnet.binancefuture.com"
		} else {
			c.baseURL = "https://fapi.binance.com"
		}
	}
}

// WithRateLimit은 초당 최대 호출 수를 설정합니다
func WithRateLimit(callsPerSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = NewRateLimiter(callsPerSecond)
	}
}

// WithRetryConfig는 재시도 설정을 지정합니다
func WithRetryConfig(config RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = config
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithSymbols는 체결 내역 조회 대상 심볼을 설정합니다
func WithSymbols(symbols ...string) ClientOption {
	return func(c *Client) {
		c.watchSymbols = append([]string(nil), symbols...)
	}
}

// NewClient는 새로운 바이낸스 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    "https://fapi.binance.com", // 기본값은 선물 거래소
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    NewRateLimiter(10),
		retry:      DefaultRetryConfig,
		log:        zerolog.Nop(),
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name은 거래소 이름을 반환합니다
func (c *Client) Name() string { return venueName }

// Capabilities는 지원 기능을 반환합니다. 주문 변경은 취소 후 재주문으로 처리합니다
func (c *Client) Capabilities() exchange.Capabilities {
	return exchange.Capabilities{ModifyOrder: true, CancelOrder: true, PartialClose: true}
}

// Connect는 서버 상태, 시간, API 키를 확인하고 심볼 규칙을 불러옵니다
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/ping", nil, false); err != nil {
		return fmt.Errorf("%w: 바이낸스 핑 실패: %w", domain.ErrConnection, err)
	}

	if err := c.SyncTime(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	// 서명 요청으로 API 키 확인
	if _, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true); err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return err
		}
		return fmt.Errorf("%w: 계정 확인 실패: %w", domain.ErrConnection, err)
	}

	if _, err := c.loadExchangeInfo(ctx); err != nil {
		// 규칙이 없으면 심볼 접미사 기준으로 검증합니다
		c.log.Warn().Err(err).Msg("거래소 정보 로드 실패")
	}

	c.connected.Store(true)
	c.log.Info().Str("baseURL", c.baseURL).Msg("바이낸스 연결 완료")
	return nil
}

// Connected는 Connect가 성공한 상태인지 반환합니다
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Disconnect는 유휴 연결을 정리합니다
func (c *Client) Disconnect(ctx context.Context) error {
	c.connected.Store(false)
	c.httpClient.CloseIdleConnections()
	return nil
}

// SyncTime은 바이낸스 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = result.ServerTime - time.Now().UnixMilli()
	c.mu.Unlock()
	return nil
}

// doRequest는 속도 제한과 재시도를 적용해 HTTP 요청을 실행합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, venueName, method+" "+endpoint)
	start := time.Now()

	body, err := c.doWithRetry(ctx, method, endpoint, params, needSign)

	metrics.RequestDuration.WithLabelValues(venueName, endpoint).Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(venueName, endpoint, metrics.Outcome(err)).Inc()
	tracing.End(span, err)
	return body, err
}

func (c *Client) doWithRetry(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	var lastErr error
	delay := c.retry.BaseDelay

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		waited, err := c.limiter.Wait(ctx)
		if waited {
			metrics.RateLimitWaits.WithLabelValues(venueName).Inc()
		}
		if err != nil {
			return nil, err
		}

		body, err := c.send(ctx, method, endpoint, params, needSign)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// 재시도 가능한 오류인지 확인
		if !IsRetryableError(err) {
			return nil, err
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.log.Warn().Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Int("maxRetries", c.retry.MaxRetries).
			Msg("요청 실패, 재시도합니다")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay = c.retry.next(delay)
		}
	}

	return nil, fmt.Errorf("최대 재시도 횟수 초과: %w", lastErr)
}

// send는 요청을 한 번 실행합니다. 서명은 시도마다 새로 만듭니다
func (c *Client) send(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	query := url.Values{}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}

	// URL 생성
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("URL 파싱 실패: %w", err)
	}

	// 타임스탬프 추가
	if needSign {
		query.Set("timestamp", strconv.FormatInt(c.getServerTime(), 10))
		query.Set("recvWindow", "5000")
	}

	// Encode는 키 순으로 정렬된 정규 쿼리 문자열을 만듭니다
	reqURL.RawQuery = query.Encode()

	// 서명 추가
	if needSign {
		reqURL.RawQuery = reqURL.RawQuery + "&signature=" + c.sign(reqURL.RawQuery)
	}

	// 요청 생성
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}

	// 헤더 설정
	req.Header.Set("Content-Type", "application/json")
	if needSign {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	// 요청 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("%w: API 요청 실패: %v", domain.ErrConnection, err)}
	}
	defer resp.Body.Close()

	// 응답 읽기
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("%w: 응답 읽기 실패: %v", domain.ErrConnection, err)}
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, classifyError(resp.StatusCode, body)
}

// classifyError는 HTTP 상태와 응답 본문을 에러 종류로 변환합니다
func classifyError(status int, body []byte) error {
	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"msg"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", status, string(body))
	}

	switch {
	case status == http.StatusTooManyRequests || status == http.StatusTeapot:
		return &transientError{err: fmt.Errorf("%w: %s", domain.ErrRateLimit, apiErr.Message)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden || authErrorCodes[apiErr.Code]:
		return fmt.Errorf("%w: %s", domain.ErrAuth, apiErr.Message)
	case status >= 500:
		return &transientError{err: &domain.BrokerError{Venue: venueName, Code: apiErr.Code, Message: apiErr.Message}}
	default:
		return &domain.BrokerError{Venue: venueName, Code: apiErr.Code, Message: apiErr.Message}
	}
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// getServerTime은 현재 서버 시간을 반환합니다
func (c *Client) getServerTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}
