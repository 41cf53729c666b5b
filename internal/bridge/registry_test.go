package bridge

import (
	"fmt"
	"sync"
	"testing"
)

// mockDevice is a test implementation of Device.
type mockDevice struct {
	mu      sync.Mutex
	id      string
	applied [][]Update
}

func newMockDevice(id string) *mockDevice {
	return &mockDevice{id: id}
}

func (d *mockDevice) ID() string {
	return d.id
}

func (d *mockDevice) Topics() []string {
	return []string{StatusTopic(d.id)}
}

func (d *mockDevice) ApplyUpdates(updates []Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = append(d.applied, updates)
}

// batches returns the update batches applied so far.
func (d *mockDevice) batches() [][]Update {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]Update, len(d.applied))
	copy(out, d.applied)
	return out
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	device := newMockDevice("aa11")
	registry.Register(device)

	got, ok := registry.Lookup("aa11")
	if !ok {
		t.Fatal("Lookup() ok = false, want true")
	}
	if got != device {
		t.Error("Lookup() returned a different device")
	}

	if _, ok := registry.Lookup("missing"); ok {
		t.Error("Lookup(missing) ok = true, want false")
	}

	if registry.Len() != 1 {
		t.Errorf("Len() = %d, want 1", registry.Len())
	}
}

func TestRegistry_SnapshotOrder(t *testing.T) {
	registry := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		registry.Register(newMockDevice(id))
	}

	snapshot := registry.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Snapshot() returned %d devices, want 3", len(snapshot))
	}
	for i, want := range []string{"c", "a", "b"} {
		if snapshot[i].ID() != want {
			t.Errorf("snapshot[%d].ID() = %q, want %q", i, snapshot[i].ID(), want)
		}
	}
}

func TestRegistry_ReRegisterKeepsPosition(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockDevice("first"))
	registry.Register(newMockDevice("second"))

	replacement := newMockDevice("first")
	registry.Register(replacement)

	if registry.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", registry.Len())
	}

	snapshot := registry.Snapshot()
	if snapshot[0].ID() != "first" {
		t.Errorf("snapshot[0].ID() = %q, want %q", snapshot[0].ID(), "first")
	}
	if got, _ := registry.Lookup("first"); got != replacement {
		t.Error("Lookup() did not return the replacement device")
	}
}

func TestRegistry_Topics(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockDevice("aa"))
	registry.Register(newMockDevice("bb"))
	// Same identifier again must not duplicate its topics.
	registry.Register(newMockDevice("aa"))

	topics := registry.Topics()
	want := []string{"wifielement/aa/status", "wifielement/bb/status"}
	if len(topics) != len(want) {
		t.Fatalf("Topics() returned %d topics, want %d: %v", len(topics), len(want), topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockDevice("seed"))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)

		// Concurrent registrations
		go func(n int) {
			defer wg.Done()
			registry.Register(newMockDevice(fmt.Sprintf("dev-%d", n)))
		}(i)

		// Concurrent lookups
		go func() {
			defer wg.Done()
			registry.Lookup("seed")
		}()

		// Concurrent snapshots
		go func() {
			defer wg.Done()
			registry.Snapshot()
		}()
	}

	wg.Wait()

	if registry.Len() != 101 {
		t.Errorf("Len() = %d, want 101", registry.Len())
	}
	if _, ok := registry.Lookup("seed"); !ok {
		t.Error("Lookup(seed) after concurrent access ok = false, want true")
	}
}
