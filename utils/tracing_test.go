package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewTracerProvider_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider("stdout", "nutriscan-test", &buf)
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "provider.FetchNutrition")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"Name":"provider.FetchNutrition"`) {
		t.Errorf("span not exported: %s", out)
	}
	if !strings.Contains(out, "nutriscan-test") {
		t.Errorf("service name missing from resource: %s", out)
	}
}

func TestNewTracerProvider_None(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider("none", "nutriscan", &buf)
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "x")
	if !span.IsRecording() {
		t.Error("expected a recording span")
	}
	span.End()
	_ = tp.Shutdown(context.Background())
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestNewTracerProvider_UnknownExporter(t *testing.T) {
	if _, err := NewTracerProvider("zipkin", "nutriscan", nil); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
