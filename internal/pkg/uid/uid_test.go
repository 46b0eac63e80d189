package uid

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestSnowflakeUniqueAcrossGoroutines(t *testing.T) {
	gen, err := NewSnowflake()
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	const workers, perWorker = 8, 500
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range perWorker {
				ids <- gen.Generate()
			}
		})
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		if id <= 0 {
			t.Fatalf("non-positive id %d", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSnowflakeNodeRange(t *testing.T) {
	if _, err := NewSnowflakeNode(2048); err == nil {
		t.Fatalf("expected error for node out of range")
	}
}

func TestUUIDIsVersion7(t *testing.T) {
	raw := NewUUID().Generate()

	id, err := uuid.Parse(raw)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) error = %v", raw, err)
	}
	if id.Version() != 7 {
		t.Fatalf("Version() = %d, want 7", id.Version())
	}
}
