package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
)

// flatten은 열린 주문을 모두 취소한 뒤 전체 포지션을 청산합니다.
// 주문 취소를 지원하지 않는 거래소는 청산만 수행합니다.
func flatten(ctx context.Context, ex exchange.Exchange, log zerolog.Logger) error {
	var errs []error

	cancelled, err := exchange.CancelAllOrders(ctx, ex)
	switch {
	case errors.Is(err, domain.ErrUnsupported):
		log.Warn().Str("venue", ex.Name()).Msg("주문 취소 미지원, 포지션 청산만 진행")
	case err != nil:
		errs = append(errs, fmt.Errorf("주문 정리 실패: %w", err))
	}

	closed, err := exchange.CloseAllPositions(ctx, ex)
	if err != nil {
		errs = append(errs, fmt.Errorf("포지션 정리 실패: %w", err))
	}

	log.Info().
		Int("cancelled_orders", cancelled).
		Int("closed_positions", closed).
		Msg("종료 전 주문/포지션 정리 완료")

	return errors.Join(errs...)
}
