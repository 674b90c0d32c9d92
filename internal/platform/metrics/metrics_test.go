package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementUsersCreated()
		m.IncrementOCR("accepted")
		m.ObserveRequest("/api/kyc", "2xx", time.Millisecond)
		m.IncrementVote("cast")
	})
}

func TestCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncrementOCR("rejected")
	m.IncrementOCR("rejected")
	m.IncrementVote("not_eligible")
	m.IncrementUsersCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OCRRequests.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Votes.WithLabelValues("not_eligible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
}
