package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestInitMetricsExportsToRegistry(t *testing.T) {
	m, err := InitMetrics(MetricsConfig{ServiceName: "nodalpair"})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	defer m.Shutdown(context.Background())

	counter, err := m.Provider.Meter("test").Int64Counter("pairing_runs")
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}
	counter.Add(context.Background(), 2)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "pairing_runs") {
			found = true
		}
	}
	if !found {
		t.Error("counter not exported to the registry")
	}
}

func TestMetricsPushWithoutGatewayIsNoop(t *testing.T) {
	m, err := InitMetrics(MetricsConfig{ServiceName: "nodalpair"})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	if err := m.Push(context.Background()); err != nil {
		t.Errorf("Push without URL: %v", err)
	}
}

func TestMetricsPush(t *testing.T) {
	var calls atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, err := InitMetrics(MetricsConfig{ServiceName: "nodalpair", PushgatewayURL: srv.URL})
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	counter, _ := m.Provider.Meter("test").Int64Counter("pairing_runs")
	counter.Add(context.Background(), 1)

	if err := m.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 push request, got %d", calls.Load())
	}
	if p, _ := path.Load().(string); !strings.Contains(p, "/job/nodalpair") {
		t.Errorf("unexpected push path %q", p)
	}
}
