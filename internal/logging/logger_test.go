package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("DEBUG").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("invalid").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("").GetLevel())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "info"), "deriv")
	log.Info().Msg("연결됨")

	assert.Contains(t, buf.String(), `"component":"deriv"`)
	assert.Contains(t, buf.String(), "연결됨")
}
