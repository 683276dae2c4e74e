package otel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gootel "go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/louisbranch/mcptoolbox/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Config{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Config{
		Endpoint: "http://localhost:4318",
		Enabled:  false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_ExportsTracesAndMetrics(t *testing.T) {
	var mu sync.Mutex
	paths := map[string]int{}
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths[r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	prevTP, prevMP := gootel.GetTracerProvider(), gootel.GetMeterProvider()
	defer func() {
		gootel.SetTracerProvider(prevTP)
		gootel.SetMeterProvider(prevMP)
	}()

	shutdown, err := otel.Setup(context.Background(), "test-service", otel.Config{
		Endpoint: collector.URL,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gootel.GetMeterProvider().(*sdkmetric.MeterProvider); !ok {
		t.Fatalf("expected SDK meter provider, got %T", gootel.GetMeterProvider())
	}

	counter, err := gootel.Meter("otel-test").Int64Counter("test.calls")
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}
	counter.Add(context.Background(), 1)
	_, span := gootel.Tracer("otel-test").Start(context.Background(), "test-span")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if paths["/v1/metrics"] == 0 {
		t.Fatalf("expected metrics export, got requests %v", paths)
	}
	if paths["/v1/traces"] == 0 {
		t.Fatalf("expected trace export, got requests %v", paths)
	}
}

func TestSignalURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{endpoint: "http://collector:4318", want: "http://collector:4318/v1/metrics"},
		{endpoint: "http://collector:4318/", want: "http://collector:4318/v1/metrics"},
		{endpoint: "https://collector/custom/metrics", want: "https://collector/custom/metrics"},
	}
	for _, tt := range tests {
		if got := otel.SignalURL(tt.endpoint, "/v1/metrics"); got != tt.want {
			t.Errorf("signalURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "noop-test", otel.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
