// Package metrics exposes training and prediction counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Epochs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightcurve_epochs_total",
		Help: "Total training epochs run",
	})
	Loss = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightcurve_loss",
		Help: "Training loss of the latest epoch",
	})
	BestLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lightcurve_best_loss",
		Help: "Lowest loss seen at a reporting boundary",
	})
	Checkpoints = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightcurve_checkpoints_total",
		Help: "Total checkpoints written",
	})
	CheckpointErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lightcurve_checkpoint_errors_total",
		Help: "Total failed checkpoint writes",
	})
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lightcurve_predictions_total",
		Help: "Total predictions by class",
	}, []string{"class"})
	EpochDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lightcurve_epoch_duration_seconds",
		Help:    "Duration of one training epoch",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(Epochs, Loss, BestLoss, Checkpoints, CheckpointErrors, Predictions, EpochDuration)
}

// ObserveEpoch records one finished epoch that started at start.
func ObserveEpoch(start time.Time, loss float64) {
	Epochs.Inc()
	Loss.Set(loss)
	EpochDuration.Observe(time.Since(start).Seconds())
}

// IncPrediction counts a prediction of class.
func IncPrediction(class int) {
	Predictions.WithLabelValues(strconv.Itoa(class)).Inc()
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer serves Handler on addr (e.g. ":9090") in the background and
// returns the server so the caller can shut it down. An empty addr starts
// nothing.
func StartServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
