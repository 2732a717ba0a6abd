package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/carebook/internal/metrics"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(WithRequestLogging(zap.New(core)))
	r.Patch("/bookings/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPatch, "/bookings/{id}/cancel", "409")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodPatch, "/bookings/42/cancel", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v; want 1", got)
	}
	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries; want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/bookings/{id}/cancel" {
		t.Errorf("route = %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusConflict) {
		t.Errorf("status = %v (%T)", fields["status"], fields["status"])
	}
}
