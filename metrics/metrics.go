// Package metrics exposes the module's prometheus counters: one family
// per encode/decode boundary and one per client outcome, registered once
// and served over HTTP the way the teacher's instrumentation server does.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/francistor/diameter/logging"
)

var (
	registry = prometheus.NewRegistry()

	MessagesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_encoded_total",
			Help: "Diameter messages encoded",
		},
		[]string{"command"})

	MessagesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_decoded_total",
			Help: "Diameter messages decoded",
		},
		[]string{"command"})

	DictionaryMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictionary_misses_total",
			Help: "AVP codes not found in the dictionary",
		},
		[]string{})

	ClientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_requests_total",
			Help: "Requests sent by the client shell",
		},
		[]string{"command"})

	ClientAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_answers_total",
			Help: "Answers received by the client shell, by Result-Code",
		},
		[]string{"result_code"})

	ClientErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_errors_total",
			Help: "Client shell errors, by kind",
		},
		[]string{"kind"})
)

var registerOnce sync.Once

// register MustRegisters every counter family exactly once, so importing
// the package is enough to make the metrics visible on /metrics.
func register() {
	registerOnce.Do(func() {
		registry.MustRegister(
			MessagesEncoded,
			MessagesDecoded,
			DictionaryMisses,
			ClientRequests,
			ClientAnswers,
			ClientErrors,
		)
	})
}

func init() {
	register()
}

// StartServer starts an HTTP server exposing /metrics on addr and returns
// it so the caller can Shutdown it, mirroring the teacher's
// instrumentation server lifecycle without its event-loop/query-channel
// machinery (out of scope here: this package has no stateful tables to
// query, only counters).
func StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		IdleTimeout:       1 * time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.L.Infof("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L.Errorf("metrics server error: %s", err.Error())
		}
	}()

	return srv
}

// Shutdown gracefully stops a server started with StartServer.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}
