package domain

import (
	"errors"
	"fmt"
)

// 브로커/분석 계층에서 발생하는 에러 종류입니다. errors.Is로 분기합니다
var (
	ErrConnection        = errors.New("연결 오류")
	ErrAuth              = errors.New("인증 실패")
	ErrTimeout           = errors.New("응답 시간 초과")
	ErrUnsupported       = errors.New("지원하지 않는 작업")
	ErrValidation        = errors.New("유효하지 않은 요청")
	ErrInsufficientData  = errors.New("데이터 부족")
	ErrRateLimit         = errors.New("요청 한도 초과")
	ErrBroker            = errors.New("거래소 오류")
	ErrProtectionMissing = errors.New("보호 주문 누락")
)

// BrokerError는 거래소가 반환한 오류 메시지를 담습니다
type BrokerError struct {
	Venue   string
	Code    int
	Reason  string // 문자열 에러 코드를 쓰는 거래소용
	Message string
}

func (e *BrokerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s 거래소 오류(%s): %s", e.Venue, e.Reason, e.Message)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s 거래소 오류(코드: %d): %s", e.Venue, e.Code, e.Message)
	}
	return fmt.Sprintf("%s 거래소 오류: %s", e.Venue, e.Message)
}

// Is는 errors.Is(err, ErrBroker)를 지원합니다
func (e *BrokerError) Is(target error) bool {
	return target == ErrBroker
}

// ValidationError는 입력값 검증 에러를 정의합니다
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("유효하지 않은 %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProtectionError는 주문은 체결되었지만 손절/익절 주문 설정에 실패한 경우입니다
type ProtectionError struct {
	OrderID string
	Kind    string // "stop_loss" 또는 "take_profit"
	Err     error
}

func (e *ProtectionError) Error() string {
	return fmt.Sprintf("주문 %s의 %s 설정 실패 (포지션은 보호 없이 유지됨): %v", e.OrderID, e.Kind, e.Err)
}

func (e *ProtectionError) Is(target error) bool {
	return target == ErrProtectionMissing
}

func (e *ProtectionError) Unwrap() error {
	return e.Err
}

// OperationError는 어댑터 작업 에러를 확장한 구조체입니다
type OperationError struct {
	Venue string
	Op    string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s [작업: %s]: %v", e.Venue, e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError는 새로운 OperationError를 생성합니다
func NewOperationError(venue, op string, err error) *OperationError {
	return &OperationError{Venue: venue, Op: op, Err: err}
}
