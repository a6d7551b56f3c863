package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/conduit/internal/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrap: %w", domain.ErrTimeout), "timeout"},
		{domain.ErrAuth, "auth"},
		{domain.ErrRateLimit, "rate_limit"},
		{&domain.BrokerError{Venue: "x", Message: "m"}, "broker"},
		{fmt.Errorf("기타"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve("127.0.0.1:0")
	defer srv.Close()

	SignalsTotal.WithLabelValues("BTCUSDT", "BUY").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(SignalsTotal.WithLabelValues("BTCUSDT", "BUY")))

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "signals_total" {
			found = true
			break
		}
	}
	assert.True(t, found, "signals_total 메트릭이 등록되어야 합니다")
}
