package creds

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestPool_RemoveKeepsOrder(t *testing.T) {
	p := NewPool([]string{"alice", "bob", "carol"})

	removed, remaining := p.Remove("bob")
	if removed != 1 || remaining != 2 {
		t.Errorf("Remove = (%d, %d), want (1, 2)", removed, remaining)
	}

	want := []string{"alice", "carol"}
	if got := p.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot = %v, want %v", got, want)
	}
}

func TestPool_RemoveSeveralInOneCall(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d", "e"})

	removed, remaining := p.Remove("e", "b", "d")
	if removed != 3 || remaining != 2 {
		t.Errorf("Remove = (%d, %d), want (3, 2)", removed, remaining)
	}
	if got := p.Snapshot(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("snapshot = %v, want [a c]", got)
	}
}

func TestPool_RemoveMissingIsNoop(t *testing.T) {
	p := NewPool([]string{"alice"})
	p.Remove("alice")

	removed, remaining := p.Remove("alice")
	if removed != 0 || remaining != 0 {
		t.Errorf("second Remove = (%d, %d), want (0, 0)", removed, remaining)
	}
}

func TestPool_SnapshotIsACopy(t *testing.T) {
	users := []string{"alice", "bob"}
	p := NewPool(users)

	snap := p.Snapshot()
	snap[0] = "mallory"
	users[1] = "eve"

	if got := p.Snapshot(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("pool mutated through a copy: %v", got)
	}
}

func TestPool_Contains(t *testing.T) {
	p := NewPool([]string{"alice"})
	if !p.Contains("alice") {
		t.Error("expected alice in pool")
	}
	if p.Contains("bob") {
		t.Error("did not expect bob in pool")
	}
}

func TestPool_ConcurrentReadersAndWriters(t *testing.T) {
	users := make([]string, 100)
	for i := range users {
		users[i] = fmt.Sprintf("user%d", i)
	}
	p := NewPool(users)

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(2)
		go func(name string) {
			defer wg.Done()
			p.Remove(name)
		}(u)
		go func() {
			defer wg.Done()
			_ = p.Snapshot()
		}()
	}
	wg.Wait()

	if p.Len() != 0 {
		t.Errorf("pool len = %d, want 0", p.Len())
	}
}
