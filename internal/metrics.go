package internal

import (
	"errors"
	"time"
	"webpay/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationCreate = "create"
	operationCommit = "commit"
	operationStatus = "status"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webpay_gateway_requests_total",
			Help: "Total number of calls to the payment gateway",
		},
		[]string{"operation", "outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webpay_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	transactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webpay_transactions_total",
			Help: "Observed transaction lifecycle states",
		},
		[]string{"state"},
	)
)

// observeGateway records one gateway round trip. A call the gateway answered with an
// error status is "rejected"; a call that never got an answer is "error".
func observeGateway(operation string, start time.Time, err error) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
		var gatewayErr *entity.GatewayError
		if errors.As(err, &gatewayErr) && gatewayErr.StatusCode != 0 {
			outcome = outcomeRejected
		}
	}
	gatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func observeState(state entity.TransactionState) {
	transactionsTotal.WithLabelValues(string(state)).Inc()
}
