package services

import "github.com/prometheus/client_golang/prometheus"

var (
	emailVerificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_verification_outcomes_total",
			Help: "Email submission and verification outcomes",
		},
		[]string{"outcome"},
	)

	checkoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session attempts by result",
		},
		[]string{"result"},
	)

	subscriptionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_events_total",
			Help: "Billing provider events applied to subscriptions",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(emailVerificationOutcomes, checkoutSessions, subscriptionEvents)
}
