package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/assist-by/conduit/internal/analysis/signal"
	"github.com/assist-by/conduit/internal/config"
	"github.com/assist-by/conduit/internal/domain"
	"github.com/assist-by/conduit/internal/exchange"
	"github.com/assist-by/conduit/internal/exchange/binance"
	"github.com/assist-by/conduit/internal/exchange/deriv"
	"github.com/assist-by/conduit/internal/logging"
	"github.com/assist-by/conduit/internal/market"
	"github.com/assist-by/conduit/internal/metrics"
	"github.com/assist-by/conduit/internal/scheduler"
	"github.com/assist-by/conduit/internal/tracing"
)

func main() {
	// 명령줄 플래그 정의
	onceFlag := flag.Bool("once", false, "한 번 수집 후 종료")
	flattenFlag := flag.Bool("flatten", false, "종료 시 열린 주문 취소 및 전체 포지션 청산")
	flag.Parse()

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.App.LogLevel)
	log.Info().Str("venue", cfg.App.Venue).Strs("symbols", cfg.App.Symbols).Msg("트레이딩 봇 시작")

	if err := run(cfg, log, *onceFlag, *flattenFlag); err != nil {
		log.Error().Err(err).Msg("비정상 종료")
		os.Exit(1)
	}
	log.Info().Msg("프로그램을 종료합니다")
}

func run(cfg *config.Config, log zerolog.Logger, once, flattenOnExit bool) error {
	ctx, cancel := osSignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.App.Tracing {
		shutdown, err := tracing.Setup(ctx, os.Stderr, "conduit")
		if err != nil {
			return fmt.Errorf("트레이싱 설정 실패: %w", err)
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = shutdown(sctx)
		}()
	}

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
	}

	ex, err := newExchange(cfg, log)
	if err != nil {
		return err
	}
	if err := ex.Connect(ctx); err != nil {
		return fmt.Errorf("%s 연결 실패: %w", ex.Name(), err)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if err := ex.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("연결 종료 실패")
		}
	}()

	interval, _ := domain.ParseInterval(cfg.App.Interval)
	minStrength, _ := domain.ParseSignalStrength(cfg.Signal.MinStrength)

	generator := signal.NewGenerator(
		signal.Config{
			TechnicalWeight: cfg.Signal.TechnicalWeight,
			SentimentWeight: cfg.Signal.SentimentWeight,
			Threshold:       cfg.Signal.Threshold,
		},
		signal.WithMarketHours(market.NewSessionHours(nil)),
		signal.WithLogger(logging.Component(log, "signal")),
	)

	collector := market.NewCollector(ex, generator, cfg.App.Symbols, interval,
		market.WithCandleLimit(cfg.App.CandleLimit),
		market.WithMinStrength(minStrength),
		market.WithSignalHandler(reportSignals(ex, cfg.Trading.RiskPercent, log)),
		market.WithLogger(logging.Component(log, "collector")),
	)

	var runErr error
	if once {
		runErr = collector.Execute(ctx)
	} else {
		s := scheduler.NewScheduler(cfg.App.FetchInterval, collector,
			scheduler.WithImmediate(),
			scheduler.WithLogger(logging.Component(log, "scheduler")),
		)
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		} else {
			log.Info().Msg("시스템 종료 신호 수신")
		}
	}

	// 신호로 ctx가 취소된 뒤에도 정리 요청은 보내야 하므로 별도 컨텍스트 사용
	if flattenOnExit {
		fctx, fcancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer fcancel()
		if err := flatten(fctx, ex, log); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

// newExchange는 설정된 거래소 어댑터를 생성합니다
func newExchange(cfg *config.Config, log zerolog.Logger) (exchange.Exchange, error) {
	switch cfg.App.Venue {
	case "binance":
		return binance.NewClient(
			cfg.Binance.APIKey,
			cfg.Binance.SecretKey,
			binance.WithTimeout(cfg.Binance.Timeout),
			binance.WithTestnet(cfg.Binance.UseTestnet),
			binance.WithRateLimit(cfg.Binance.CallsPerSecond),
			binance.WithSymbols(cfg.App.Symbols...),
			binance.WithLogger(logging.Component(log, "binance")),
		), nil

	case "deriv":
		opts := []deriv.ClientOption{
			deriv.WithEndpoint(cfg.Deriv.URL),
			deriv.WithRequestTimeout(cfg.Deriv.RequestTimeout),
			deriv.WithPingInterval(cfg.Deriv.PingInterval),
			deriv.WithLogger(logging.Component(log, "deriv")),
		}
		if cfg.App.SymbolFile != "" {
			limits, err := config.LoadSymbolCatalog(cfg.App.SymbolFile)
			if err != nil {
				return nil, err
			}
			opts = append(opts, deriv.WithSymbolLimits(limits))
		}
		return deriv.NewClient(cfg.Deriv.AppID, cfg.Deriv.APIToken, opts...), nil
	}
	return nil, fmt.Errorf("지원하지 않는 거래소: %s", cfg.App.Venue)
}
