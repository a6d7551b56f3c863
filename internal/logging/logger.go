package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New는 지정된 레벨의 JSON 로거를 생성합니다. 알 수 없는 레벨이면 info를 사용합니다
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter는 출력 대상을 지정하여 로거를 생성합니다
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Component는 컴포넌트 이름이 붙은 하위 로거를 반환합니다
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
