package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/assist-by/conduit/internal/domain"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey         string        `envconfig:"BINANCE_API_KEY"`
		SecretKey      string        `envconfig:"BINANCE_SECRET_KEY"`
		UseTestnet     bool          `envconfig:"BINANCE_TESTNET" default:"false"`
		CallsPerSecond float64       `envconfig:"BINANCE_CALLS_PER_SECOND" default:"10"`
		Timeout        time.Duration `envconfig:"BINANCE_TIMEOUT" default:"10s"`
	}

	// Deriv 웹소켓 설정
	Deriv struct {
		AppID          string        `envconfig:"DERIV_APP_ID" default:"1089"`
		APIToken       string        `envconfig:"DERIV_API_TOKEN"`
		URL            string        `envconfig:"DERIV_WS_URL" default:"wss://ws.derivws.com/websockets/v3"`
		RequestTimeout time.Duration `envconfig:"DERIV_REQUEST_TIMEOUT" default:"30s"`
		PingInterval   time.Duration `envconfig:"DERIV_PING_INTERVAL" default:"30s"`
	}

	// 애플리케이션 설정
	App struct {
		Venue         string        `envconfig:"VENUE" default:"binance"`
		Symbols       []string      `envconfig:"SYMBOLS" default:"BTCUSDT,ETHUSDT"`
		Interval      string        `envconfig:"INTERVAL" default:"15m"`
		FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"15m"`
		CandleLimit   int           `envconfig:"CANDLE_LIMIT" default:"200"`
		LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
		MetricsAddr   string        `envconfig:"METRICS_ADDR" default:":9090"`
		Tracing       bool          `envconfig:"TRACING_ENABLED" default:"false"`
		SymbolFile    string        `envconfig:"SYMBOL_FILE"`
	}

	// 시그널 설정
	Signal struct {
		TechnicalWeight float64 `envconfig:"SIGNAL_TECHNICAL_WEIGHT" default:"0.7"`
		SentimentWeight float64 `envconfig:"SIGNAL_SENTIMENT_WEIGHT" default:"0.3"`
		Threshold       float64 `envconfig:"SIGNAL_THRESHOLD" default:"0.3"`
		MinStrength     string  `envconfig:"SIGNAL_MIN_STRENGTH" default:"Moderate"`
	}

	// 거래 설정
	Trading struct {
		RiskPercent float64 `envconfig:"RISK_PERCENT" default:"1"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	switch cfg.App.Venue {
	case "binance":
		if cfg.Binance.APIKey == "" || cfg.Binance.SecretKey == "" {
			return fmt.Errorf("바이낸스 API 키가 설정되지 않았습니다")
		}
		if cfg.Binance.CallsPerSecond <= 0 {
			return fmt.Errorf("BINANCE_CALLS_PER_SECOND는 0보다 커야 합니다")
		}
	case "deriv":
		if cfg.Deriv.APIToken == "" {
			return fmt.Errorf("DERIV_API_TOKEN이 설정되지 않았습니다")
		}
	default:
		return fmt.Errorf("지원하지 않는 거래소: %s", cfg.App.Venue)
	}

	if _, err := domain.ParseInterval(cfg.App.Interval); err != nil {
		return err
	}

	if cfg.App.FetchInterval < 1*time.Minute {
		return fmt.Errorf("FETCH_INTERVAL은 1분 이상이어야 합니다")
	}

	if cfg.App.CandleLimit < 50 {
		return fmt.Errorf("CANDLE_LIMIT은 50 이상이어야 합니다")
	}

	if len(cfg.App.Symbols) == 0 {
		return fmt.Errorf("SYMBOLS가 비어있습니다")
	}

	if cfg.Signal.TechnicalWeight < 0 || cfg.Signal.SentimentWeight < 0 {
		return fmt.Errorf("시그널 가중치는 음수일 수 없습니다")
	}

	if _, err := domain.ParseSignalStrength(cfg.Signal.MinStrength); err != nil {
		return err
	}

	if cfg.Trading.RiskPercent <= 0 || cfg.Trading.RiskPercent > 100 {
		return fmt.Errorf("RISK_PERCENT는 0 초과 100 이하이어야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}

// symbolCatalog는 심볼 한도 YAML 파일 구조입니다
type symbolCatalog struct {
	Symbols map[string]domain.SymbolLimits `yaml:"symbols"`
}

// LoadSymbolCatalog는 YAML 파일에서 심볼별 주문 한도를 읽습니다
func LoadSymbolCatalog(path string) (map[string]domain.SymbolLimits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("심볼 파일 읽기 실패: %w", err)
	}

	var catalog symbolCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("심볼 파일 파싱 실패: %w", err)
	}

	for symbol, limits := range catalog.Symbols {
		if limits.MinSize <= 0 || limits.MaxSize < limits.MinSize {
			return nil, fmt.Errorf("%s 심볼의 한도가 잘못되었습니다: min=%v max=%v", symbol, limits.MinSize, limits.MaxSize)
		}
	}

	return catalog.Symbols, nil
}
