package baselooper

import (
	"testing"

	"github.com/joeycumines/logiface"
	"go.opentelemetry.io/otel/trace"
)

func TestResolveLooperOptionsDefaults(t *testing.T) {
	cfg := resolveLooperOptions(nil)
	if cfg.metricsWindow != 128 {
		t.Fatalf("default metricsWindow = %d, want 128", cfg.metricsWindow)
	}
	if cfg.name != "" {
		t.Fatalf("default name = %q, want empty", cfg.name)
	}
	if cfg.logger != nil {
		t.Fatal("default logger should be nil")
	}
}

func TestResolveLooperOptionsApplied(t *testing.T) {
	logger := logiface.New[logiface.Event]()
	cfg := resolveLooperOptions([]LooperOption{
		WithLooperName("custom"),
		WithLooperLogger(logger),
		WithLooperMetricsWindow(7),
		nil,
	})
	if cfg.name != "custom" {
		t.Fatalf("name = %q, want custom", cfg.name)
	}
	if cfg.logger != logger {
		t.Fatal("logger option was not applied")
	}
	if cfg.metricsWindow != 7 {
		t.Fatalf("metricsWindow = %d, want 7", cfg.metricsWindow)
	}
}

func TestResolveRosterOptionsDefaults(t *testing.T) {
	cfg := resolveRosterOptions(nil)
	if cfg.recentDeliveries != 64 {
		t.Fatalf("default recentDeliveries = %d, want 64", cfg.recentDeliveries)
	}
	if cfg.tracer != nil {
		t.Fatal("default tracer should be nil")
	}
}

func TestResolveRosterOptionsApplied(t *testing.T) {
	var tracer trace.Tracer
	cfg := resolveRosterOptions([]RosterOption{
		WithRecentDeliveries(10),
		WithTracer(tracer),
		nil,
	})
	if cfg.recentDeliveries != 10 {
		t.Fatalf("recentDeliveries = %d, want 10", cfg.recentDeliveries)
	}
}

func TestNewLooperUsesOptions(t *testing.T) {
	l := NewLooper(WithLooperName("my-looper"))
	if l.Name() != "my-looper" {
		t.Fatalf("Name() = %q, want my-looper", l.Name())
	}

	auto := NewLooper()
	if auto.Name() == "" {
		t.Fatal("auto-generated name should not be empty")
	}
}
