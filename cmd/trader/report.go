package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/market"
	"github.com/assist-by/conduit/internal/position"
)

// reportSignals는 시그널마다 위험 비율 기준 권장 수량과 필요 증거금을 계산해 기록합니다.
// 같은 심볼에 이미 포지션이 있으면 함께 기록합니다.
func reportSignals(ex exchange.Exchange, riskPercent float64, log zerolog.Logger) market.SignalHandler {
	return func(ctx context.Context, signals []*domain.TradingSignal) {
		var balance, leverage float64
		account, err := ex.GetAccount(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("잔고 조회 실패, 권장 수량 생략")
		} else {
			balance, leverage = account.FreeMargin, account.Leverage
		}

		positions, err := ex.GetPositions(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("포지션 조회 실패")
		}

		for _, s := range signals {
			evt := log.Info().
				Str("symbol", s.Symbol).
				Str("direction", string(s.Direction)).
				Str("strength", s.Strength.String()).
				Float64("confidence", s.Confidence).
				Float64("entry", s.EntryPrice).
				Float64("stop_loss", s.StopLoss).
				Float64("take_profit", s.TakeProfit).
				Float64("risk_reward", s.RiskReward).
				Strs("reasons", s.Reasons).
				Strs("warnings", s.Warnings)

			if pos, ok := exchange.FindPosition(positions, s.Symbol); ok {
				evt = evt.Str("open_side", string(pos.Side)).Float64("open_size", pos.Size)
			}

			if balance > 0 {
				size, err := position.CalculatePositionSize(s.EntryPrice, s.StopLoss, position.SizingConfig{
					Balance:     balance,
					RiskPercent: riskPercent,
					MinSize:     ex.MinSize(s.Symbol),
					MaxSize:     ex.MaxSize(s.Symbol),
				})
				if err != nil {
					evt = evt.AnErr("size_error", err)
				} else {
					evt = evt.Float64("size", size.Quantity).
						Float64("risk_amount", size.RiskAmount).
						Float64("margin", exchange.MarginRequired(size.Quantity, s.EntryPrice, leverage))
				}
			}
			evt.Msg("매매 시그널")
		}
	}
}
