package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/internal/metrics"
	"github.com/BaSui01/voiceflow/retry"
	"github.com/BaSui01/voiceflow/types"
)

// 瞬时故障重试应计入供应商重试计数器。
func TestRetryPolicyCountsRetries(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond

	logger := zaptest.NewLogger(t)
	s := &Server{
		cfg:              cfg,
		logger:           logger,
		metricsCollector: metrics.NewCollector("voiceflow_cmdtest", logger),
	}

	retryer := retry.NewBackoffRetryer(s.retryPolicy("whisper", "transcribe"), logger)

	calls := 0
	err := retryer.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return types.NewRateLimitError("whisper")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var retries float64
	for _, mf := range families {
		if mf.GetName() == "voiceflow_cmdtest_provider_retries_total" {
			for _, m := range mf.GetMetric() {
				retries += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, retries, "两次重试各计一次")
}
