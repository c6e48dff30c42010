package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics() // 重复调用不会重复注册（否则promauto会panic）

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, RatingRecomputeDuration)
	assert.NotNil(t, RateLimitedTotal)
}

func TestObserveHTTPRequest(t *testing.T) {
	before := getCounterVecValue(t, HTTPRequestsTotal, "GET", "/books/", "200")

	ObserveHTTPRequest("GET", "/books/", "200", 0.012)
	ObserveHTTPRequest("GET", "/books/", "200", 0.003)
	ObserveHTTPRequest("PATCH", "/relations/:book_id/", "400", 0.001)

	assert.Equal(t, before+2, getCounterVecValue(t, HTTPRequestsTotal, "GET", "/books/", "200"))
	assert.Equal(t, 1.0, getCounterVecValue(t, HTTPRequestsTotal, "PATCH", "/relations/:book_id/", "400"))
}

func TestTrackInFlight(t *testing.T) {
	InitMetrics()
	before := getGaugeValue(t, HTTPRequestsInProgress)

	done := TrackInFlight()
	assert.Equal(t, before+1, getGaugeValue(t, HTTPRequestsInProgress))

	done()
	assert.Equal(t, before, getGaugeValue(t, HTTPRequestsInProgress))
}

func TestObserveRatingRecompute(t *testing.T) {
	InitMetrics()
	countBefore := getHistogramCount(t, RatingRecomputeDuration)

	ObserveRatingRecompute(nil, 0.002)
	ObserveRatingRecompute(errors.New("lock timeout"), 0.5)

	assert.Equal(t, countBefore+2, getHistogramCount(t, RatingRecomputeDuration))
	assert.GreaterOrEqual(t, getCounterVecValue(t, RatingRecomputesTotal, "success"), 1.0)
	assert.GreaterOrEqual(t, getCounterVecValue(t, RatingRecomputesTotal, "failure"), 1.0)
}

func TestBusinessCounters(t *testing.T) {
	IncRelationWrite("created")
	IncBookMutation("delete")
	IncRateLimited()
	SetCircuitBreakerState("event-publisher", 1)

	assert.GreaterOrEqual(t, getCounterVecValue(t, RelationWritesTotal, "created"), 1.0)
	assert.GreaterOrEqual(t, getCounterVecValue(t, BookMutationsTotal, "delete"), 1.0)

	var m dto.Metric
	require.NoError(t, RateLimitedTotal.Write(&m))
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), 1.0)

	require.NoError(t, CircuitBreakerState.WithLabelValues("event-publisher").Write(&m))
	assert.Equal(t, 1.0, m.GetGauge().GetValue())
}

// 辅助函数：获取CounterVec值
func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	InitMetrics()
	var metric dto.Metric
	if err := counterVec.WithLabelValues(labels...).Write(&metric); err != nil {
		t.Fatalf("读取CounterVec值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

// 辅助函数：获取Gauge值
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("读取Gauge值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}

// 辅助函数：获取Histogram观测次数
func getHistogramCount(t *testing.T, histogram prometheus.Histogram) uint64 {
	t.Helper()
	var metric dto.Metric
	if err := histogram.Write(&metric); err != nil {
		t.Fatalf("读取Histogram值失败: %v", err)
	}
	return metric.Histogram.GetSampleCount()
}
