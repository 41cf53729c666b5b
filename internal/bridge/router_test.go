package bridge

import (
	"sync"
	"testing"
)

// captureLogger records log calls for assertions.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *captureLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func TestRouter_RoutesStatusToDevice(t *testing.T) {
	registry := NewRegistry()
	device := newMockDevice("aa11")
	registry.Register(device)

	router := NewRouter(registry)
	router.Route(StatusTopic("aa11"), []byte(`[{"type":"switch","value":"1"},{"type":"brightness","value":"80"}]`))

	batches := device.batches()
	if len(batches) != 1 {
		t.Fatalf("device received %d batches, want 1", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Fatalf("batch has %d updates, want 2", len(batches[0]))
	}
	if batches[0][0] != (Update{Type: "switch", Value: "1"}) {
		t.Errorf("first update = %+v", batches[0][0])
	}
}

func TestRouter_IgnoresUpdateEcho(t *testing.T) {
	registry := NewRegistry()
	device := newMockDevice("aa11")
	registry.Register(device)

	log := &captureLogger{}
	router := NewRouter(registry)
	router.SetLogger(log)

	// Our own command, echoed back on the shared channel.
	router.Route(UpdateTopic("aa11"), []byte(`[{"type":"switch","value":"0"}]`))

	if len(device.batches()) != 0 {
		t.Error("update echo was applied as device state")
	}
	if log.warnCount() != 0 {
		t.Errorf("update echo produced %d warnings, want 0", log.warnCount())
	}
}

func TestRouter_UnknownDevice(t *testing.T) {
	log := &captureLogger{}
	router := NewRouter(NewRegistry())
	router.SetLogger(log)

	// Must not panic; a device may report before registration completes.
	router.Route(StatusTopic("ghost"), []byte(`[{"type":"online","value":"1"}]`))

	if log.warnCount() != 1 {
		t.Errorf("unknown device produced %d warnings, want 1", log.warnCount())
	}
}

func TestRouter_UnknownTopic(t *testing.T) {
	registry := NewRegistry()
	device := newMockDevice("aa11")
	registry.Register(device)

	log := &captureLogger{}
	router := NewRouter(registry)
	router.SetLogger(log)

	router.Route("wifielement/aa11/consumption", []byte(`[]`))
	router.Route("somethingelse", []byte(`[]`))

	if len(device.batches()) != 0 {
		t.Error("message on unknown topic was applied as device state")
	}
	if log.warnCount() != 2 {
		t.Errorf("unknown topics produced %d warnings, want 2", log.warnCount())
	}
}

func TestRouter_MalformedBatchLeavesStateUntouched(t *testing.T) {
	registry := NewRegistry()
	device := newMockDevice("aa11")
	registry.Register(device)

	log := &captureLogger{}
	router := NewRouter(registry)
	router.SetLogger(log)

	// Second entry is malformed, so the whole batch must be discarded.
	router.Route(StatusTopic("aa11"), []byte(`[{"type":"switch","value":"1"},{"type":"brightness"}]`))

	if len(device.batches()) != 0 {
		t.Error("malformed batch was partially applied")
	}
	if log.warnCount() != 1 {
		t.Errorf("malformed batch produced %d warnings, want exactly 1", log.warnCount())
	}

	// A valid batch afterwards applies normally.
	router.Route(StatusTopic("aa11"), []byte(`[{"type":"switch","value":"1"}]`))
	if len(device.batches()) != 1 {
		t.Error("valid batch after malformed one was not applied")
	}
}
