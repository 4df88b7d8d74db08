// Package metrics exposes prometheus collectors for verification activity.
package metrics

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_batches_total",
		Help: "Verified proof batches by result (ok, failed, invalid).",
	}, []string{"result"})

	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_verified_items_total",
		Help: "Successfully verified items by kind.",
	}, []string{"kind"})

	blockProofDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "herald_block_proof_duration_seconds",
		Help:    "Wall time of validity proof verification.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "herald_batch_duration_seconds",
		Help:    "Wall time of full batch verification.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// CountBatch records a batch outcome.
func CountBatch(result string) {
	batchesTotal.WithLabelValues(result).Inc()
}

// CountItems records successfully verified items.
func CountItems(executionHeaders, beaconHeaders, accounts, transactions int) {
	itemsTotal.WithLabelValues("execution_header").Add(float64(executionHeaders))
	itemsTotal.WithLabelValues("beacon_header").Add(float64(beaconHeaders))
	itemsTotal.WithLabelValues("account").Add(float64(accounts))
	itemsTotal.WithLabelValues("transaction").Add(float64(transactions))
}

// ObserveBlockProof records the duration of one validity proof verification.
func ObserveBlockProof(d time.Duration) {
	blockProofDuration.Observe(d.Seconds())
}

// ObserveBatch records the duration of one full batch verification.
func ObserveBatch(d time.Duration) {
	batchDuration.Observe(d.Seconds())
}

// StartMetricsServer serves the prometheus handler on host:port.
func StartMetricsServer(logger logrus.FieldLogger, host string, port string) error {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "9090"
	}

	srv := &http.Server{
		Addr:    host + ":" + port,
		Handler: promhttp.Handler(),
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	go func() {
		logger.Infof("metrics server listening on %v", srv.Addr)
		if err := srv.Serve(listener); err != nil {
			logger.WithError(err).Fatal("Error serving metrics")
		}
	}()

	return nil
}
