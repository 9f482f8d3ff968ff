package relay

import (
	"fmt"
	"sync"
	"testing"
)

// TestRegistryRegisterReplaces verifies that registering an existing key
// replaces the prior association so a key never maps to two connections.
func TestRegistryRegisterReplaces(t *testing.T) {
	reg := NewRegistry()

	first := newFakeConn("conn-1", "alice")
	second := newFakeConn("conn-2", "alice")

	reg.Register("alice", first)
	reg.Register("alice", second)

	if reg.Len() != 1 {
		t.Fatalf("expected 1 entry after re-registration, got %d", reg.Len())
	}

	got, ok := reg.Lookup("alice")
	if !ok {
		t.Fatal("lookup after register returned absent")
	}
	if got.ID() != "conn-2" {
		t.Errorf("expected latest registration to win, got %s", got.ID())
	}

	// The superseded connection is only unreachable, not closed.
	if !first.Open() {
		t.Error("superseded connection should not be closed by the registry")
	}
}

// TestRegistryUnregisterIdempotent verifies that a double-fired disconnect
// leaves the registry in the same state as a single one.
func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register("bob", newFakeConn("conn-1", "bob"))

	reg.Unregister("bob")
	reg.Unregister("bob")

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Len())
	}
	if _, ok := reg.Lookup("bob"); ok {
		t.Error("lookup found an unregistered key")
	}
}

// TestRegistryForEachLiveSnapshot verifies that the iteration callback may
// mutate the registry without deadlock and that mutations after the snapshot
// are not reflected in the iteration.
func TestRegistryForEachLiveSnapshot(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("conn-%d", i)
		reg.Register(id, newFakeConn(id, ""))
	}

	visited := 0
	reg.ForEachLive(func(conn Conn) {
		visited++
		// A send failure handler may unregister mid-iteration.
		reg.Unregister(conn.ID())
		reg.Register("late-joiner-"+conn.ID(), newFakeConn("late", ""))
	})

	if visited != 5 {
		t.Errorf("expected snapshot of 5 connections, visited %d", visited)
	}
}

// TestRegistryConcurrentMutation exercises concurrent register, unregister,
// lookup, and iterate calls. Run with -race.
func TestRegistryConcurrentMutation(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("conn-%d", n%4)
			for j := 0; j < 100; j++ {
				reg.Register(key, newFakeConn(key, ""))
				reg.Lookup(key)
				reg.ForEachLive(func(Conn) {})
				reg.Unregister(key)
			}
		}(i)
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Errorf("expected empty registry after balanced operations, got %d", reg.Len())
	}
}
