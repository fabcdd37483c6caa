package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	ring := NewRingTracer(16, LevelSession)
	Begin(ring, ScopeSession, "session", 0).End("")
	Begin(ring, ScopeProvider, "provider:rtdata", 0).End("")
	if got := len(ring.Snapshot()); got != 2 {
		t.Fatalf("expected only session begin/end, got %d events", got)
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeInstr, name, "", 0)
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "cde" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelProvider, FormatNDJSON)
	span := Begin(st, ScopeProvider, "provider:memrep", 7)
	span.WithExtra("fields", "3").End("ok")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("bad ndjson: %v", err)
	}
	if ev["kind"] != "end" || ev["detail"] != "ok" || ev["parent_id"] != float64(7) {
		t.Fatalf("unexpected end event %v", ev)
	}

	buf.Reset()
	chrome := NewStreamTracer(&buf, LevelProvider, FormatChrome)
	Begin(chrome, ScopeSession, "session", 0).End("")
	if err := chrome.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("chrome output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 {
		t.Fatalf("expected 2 chrome events, got %d", len(doc.TraceEvents))
	}
}

func TestContextPropagation(t *testing.T) {
	ring := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer not propagated")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer should be Nop")
	}
	span := Begin(ring, ScopeSession, "session", 0)
	ctx = WithSpan(ctx, span)
	if CurrentSpan(ctx) != span.ID() || span.ID() == 0 {
		t.Fatalf("span id not propagated")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "Session": LevelSession, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("phase"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("expected disabled tracer, got %v, %v", tr, err)
	}
}
