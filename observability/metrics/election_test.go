package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestElectionReturnsSameSingletonAcrossCalls(t *testing.T) {
	require.Same(t, Election(), Election())
}

func TestObserveActionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(Election().actionsHandled.WithLabelValues("stake_vote"))
	Election().ObserveAction("stake_vote")
	after := testutil.ToFloat64(Election().actionsHandled.WithLabelValues("stake_vote"))
	require.Equal(t, before+1, after)
}

func TestObserveActionErrorDefaultsUnknownSentinel(t *testing.T) {
	before := testutil.ToFloat64(Election().actionErrors.WithLabelValues("vote_producer", "unknown"))
	Election().ObserveActionError("vote_producer", "")
	after := testutil.ToFloat64(Election().actionErrors.WithLabelValues("vote_producer", "unknown"))
	require.Equal(t, before+1, after)
}

func TestGaugeSettersDoNotPanicOnNilReceiver(t *testing.T) {
	var m *ElectionMetrics
	require.NotPanics(t, func() {
		m.ObserveAction("x")
		m.ObserveActionError("x", "y")
		m.SetProducersActive(1)
		m.SetTotalStaked(1)
		m.SetUnstakeOpen(1)
		m.ObserveRefundPaid("paid")
		m.ObserveTabulation()
	})
}

func TestSetProducersActiveRecordsGaugeValue(t *testing.T) {
	Election().SetProducersActive(21)
	require.Equal(t, float64(21), testutil.ToFloat64(Election().producersActive))
}
