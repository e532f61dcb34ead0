package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/keyedlist/pkg/keyed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ keyed.Observer = (*Tracing)(nil)

type recordingSpan struct {
	noop.Span
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &recordingSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	cfg := trace.NewSpanStartConfig(opts...)
	s.SetAttributes(cfg.Attributes()...)
	t.spans = append(t.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

func TestTracingSpanPerCycle(t *testing.T) {
	tracer := &recordingTracer{}
	tr := NewTracing(WithTracer(tracer))

	tr.StartCycle("todos")(keyed.Stats{Cycle: 3, Rows: 2, Inserted: 1, Moved: 1}, nil)

	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}
	s := tracer.spans[0]
	if s.name != "keyed.reconcile todos" {
		t.Errorf("name = %q", s.name)
	}
	if !s.ended || s.status != codes.Ok {
		t.Errorf("ended = %v, status = %v", s.ended, s.status)
	}
	want := map[attribute.Key]int64{
		"keyed.cycle":    3,
		"keyed.rows":     2,
		"keyed.inserted": 1,
		"keyed.moved":    1,
		"keyed.removed":  0,
	}
	for k, v := range want {
		if got := s.attrs[k].AsInt64(); got != v {
			t.Errorf("%s = %d, want %d", k, got, v)
		}
	}
	if got := s.attrs["keyed.region"].AsString(); got != "todos" {
		t.Errorf("keyed.region = %q", got)
	}
}

func TestTracingRecordsErrors(t *testing.T) {
	tracer := &recordingTracer{}
	tr := NewTracing(WithTracer(tracer))

	boom := errors.New("boom")
	tr.StartCycle("")(keyed.Stats{}, boom)

	s := tracer.spans[0]
	if s.name != "keyed.reconcile" {
		t.Errorf("name = %q", s.name)
	}
	if s.status != codes.Error || len(s.errs) != 1 || s.errs[0] != boom || !s.ended {
		t.Errorf("span = %+v", s)
	}
}

func TestTracingDefaultsToGlobalProvider(t *testing.T) {
	tr := NewTracing(WithTracerName("custom"))
	// The global provider is a no-op until one is installed.
	tr.StartCycle("x")(keyed.Stats{}, nil)
}
