package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.IncrementCreated(OutcomeSuccess)
	m.IncrementCreated(OutcomeSuccess)
	m.IncrementCreated(OutcomeRejected)
	m.IncrementReviewed("approve", OutcomeSuccess)
	m.IncrementProvisioningFailure()
	m.ObserveApprove(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApplicationsCreated.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApplicationsCreated.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApplicationsReviewed.WithLabelValues("approve", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ApproveDuration))
}
