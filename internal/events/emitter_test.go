package events

import "testing"

func TestTriggerRunsHandlersInRegistrationOrder(t *testing.T) {
	var e Emitter[int]
	var got []string
	e.On("x", func(int) { got = append(got, "a") })
	e.On("x", func(int) { got = append(got, "b") })
	e.On("y", func(int) { got = append(got, "other") })
	e.Trigger("x", 1)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestOffRemovesOnlyThatHandler(t *testing.T) {
	var e Emitter[string]
	rec := NewRecorder[string]()
	calls := 0
	h := e.On("change", func(string) { calls++ })
	e.On("change", rec.Record)
	e.Off("change", h)
	e.Trigger("change", "v")
	if calls != 0 {
		t.Fatalf("removed handler was called %d times", calls)
	}
	if rec.Len() != 1 || rec.Events()[0] != "v" {
		t.Fatalf("recorder got %v", rec.Events())
	}
	if e.count("change") != 1 {
		t.Fatalf("expected 1 handler left, got %d", e.count("change"))
	}
}

func TestOffUnknownHandleIsNoop(t *testing.T) {
	var e Emitter[int]
	e.On("a", func(int) {})
	e.Off("a", Handle{})
	e.Off("missing", Handle{})
	if e.count("a") != 1 {
		t.Fatalf("expected handler to survive, got %d", e.count("a"))
	}
}

func TestHandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	var e Emitter[int]
	var h Handle
	calls := 0
	h = e.On("tick", func(int) {
		calls++
		e.Off("tick", h)
	})
	second := 0
	e.On("tick", func(int) { second++ })
	e.Trigger("tick", 0)
	e.Trigger("tick", 0)
	if calls != 1 {
		t.Fatalf("self-removing handler ran %d times", calls)
	}
	if second != 2 {
		t.Fatalf("second handler ran %d times", second)
	}
}

func TestOnNilHandlerIgnored(t *testing.T) {
	var e Emitter[int]
	if h := e.On("a", nil); h != (Handle{}) {
		t.Fatalf("expected nil handle, got %v", h)
	}
	if e.count("a") != 0 {
		t.Fatalf("nil handler registered")
	}
}
