package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/invigilo/proctord/pkg/api"
)

func TestRegistryRejoinOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{ExternalId: "old@x", Role: api.RoleUser})
	r.Join("c1", Identity{ExternalId: "new@x", Role: api.RoleUser})

	if r.Len() != 1 {
		t.Fatalf("got %d entries, want 1", r.Len())
	}
	id, ok := r.Resolve("c1")
	if !ok || id.ExternalId != "new@x" {
		t.Errorf("got %+v, want new@x", id)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{ExternalId: "a@x", Role: api.RoleAdmin})

	id, ok := r.Remove("c1")
	if !ok || id.ExternalId != "a@x" {
		t.Errorf("got %+v %v, want a@x true", id, ok)
	}
	if _, ok = r.Remove("c1"); ok {
		t.Error("second remove must report missing")
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{ExternalId: "a@x", Role: api.RoleUser})

	snap := r.Snapshot()
	snap["c2"] = api.UserInfo{ExternalId: "smuggled"}

	if r.Len() != 1 {
		t.Error("mutating a snapshot must not touch the registry")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			r.Join(id, Identity{ExternalId: id, Role: api.RoleUser})
			r.Snapshot()
			r.Remove(id)
		}(i)
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("got %d entries left, want 0", r.Len())
	}
}
