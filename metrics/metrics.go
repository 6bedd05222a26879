// Package metrics holds the prometheus collectors of the adapter and the HTTP
// exporter that serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "cashu_lnd"

var (
	// PendingPayments is the number of outgoing payments without a terminal outcome.
	PendingPayments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_payments",
		Help:      "Outgoing payments waiting for a terminal outcome.",
	})

	// RetainedOutcomes is the number of terminal outcomes kept for late status queries.
	RetainedOutcomes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "retained_outcomes",
		Help:      "Terminal payment outcomes kept for late status queries.",
	})

	CachedChannels = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cached_channels",
		Help:      "Channels in the advisory channel state cache.",
	})

	IncomingSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "incoming_payment_subscribers",
		Help:      "Open incoming payment streams.",
	})

	PaymentsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_dispatched_total",
		Help:      "Outgoing payments handed to the node.",
	}, []string{"kind"})

	PaymentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_outcomes_total",
		Help:      "Results returned to payment callers.",
	}, []string{"result"})

	DuplicateTerminalEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_terminal_events_total",
		Help:      "Terminal payment events discarded because the payment was already resolved.",
	})

	PaymentsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_received_total",
		Help:      "Incoming payments reported by the node.",
	})

	EventStreamReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_stream_reconnects_total",
		Help:      "Times the node event stream had to be re-established.",
	})

	// GRPCServer instruments both RPC services.
	GRPCServer = grpc_prometheus.NewServerMetrics()

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		PendingPayments,
		RetainedOutcomes,
		CachedChannels,
		IncomingSubscribers,
		PaymentsDispatched,
		PaymentOutcomes,
		DuplicateTerminalEvents,
		PaymentsReceived,
		EventStreamReconnects,
		GRPCServer,
	)
}

// Registry exposes the collectors, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Config specifies if Prometheus metric exporting is activated, and if so the
// listening address of the Prometheus server.
type Config struct {
	Enabled    bool
	ListenAddr string
}

// StartExporter serves /metrics on cfg.ListenAddr until ctx is done. It is a
// no-op when exporting is disabled.
func StartExporter(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("error shutting down metrics server")
		}
	}()

	go func() {
		log.Infof("Prometheus metrics http endpoint being served on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return nil
}
