package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), &buf, "conduit-test")
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "binance", "GetAccount")
	End(span, errors.New("실패"))

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "binance.GetAccount")
}
