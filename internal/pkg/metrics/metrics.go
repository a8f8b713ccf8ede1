package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks policy and claim lifecycle events.
// All methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	PoliciesCreated     prometheus.Counter
	PolicyTransitions   *prometheus.CounterVec
	ClaimsCreated       prometheus.Counter
	ClaimTransitions    *prometheus.CounterVec
	FraudEvaluations    *prometheus.CounterVec
	PayoutAmount        prometheus.Histogram
	AssetLookupDuration prometheus.Histogram
}

// New creates a Metrics instance registered on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PoliciesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "assurance_policies_created_total",
			Help: "Total number of policies created",
		}),
		PolicyTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assurance_policy_transitions_total",
			Help: "Policy status changes by target status",
		}, []string{"to"}),
		ClaimsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "assurance_claims_created_total",
			Help: "Total number of claims created",
		}),
		ClaimTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assurance_claim_transitions_total",
			Help: "Claim status changes by source and target status",
		}, []string{"from", "to"}),
		FraudEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assurance_fraud_evaluations_total",
			Help: "Fraud evaluations by outcome (clear, escalated, skipped)",
		}, []string{"outcome"}),
		PayoutAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assurance_claim_payout_amount",
			Help:    "Distribution of settled claim payouts",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		}),
		AssetLookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assurance_asset_lookup_duration_seconds",
			Help:    "Duration of vehicle existence checks against the fleet service",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncPolicyCreated() {
	if m == nil {
		return
	}
	m.PoliciesCreated.Inc()
}

func (m *Metrics) IncPolicyTransition(to string) {
	if m == nil {
		return
	}
	m.PolicyTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) IncClaimCreated() {
	if m == nil {
		return
	}
	m.ClaimsCreated.Inc()
}

func (m *Metrics) IncClaimTransition(from, to string) {
	if m == nil {
		return
	}
	m.ClaimTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncFraudEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.FraudEvaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePayout(amount float64) {
	if m == nil {
		return
	}
	m.PayoutAmount.Observe(amount)
}

// ObserveAssetLookup records the duration of a fleet lookup started at start
func (m *Metrics) ObserveAssetLookup(start time.Time) {
	if m == nil {
		return
	}
	m.AssetLookupDuration.Observe(time.Since(start).Seconds())
}
