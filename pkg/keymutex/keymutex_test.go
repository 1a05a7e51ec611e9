package keymutex

import (
	"sync"
	"testing"
)

func TestSameKeySerializes(t *testing.T) {
	km := New(8)
	const workers = 32
	const iterations = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := km.Lock("user/42")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Fatalf("expected %d increments, got %d", workers*iterations, counter)
	}
}

func TestStableShardAssignment(t *testing.T) {
	km := New(16)
	if km.index("review/1/2") != km.index("review/1/2") {
		t.Fatal("same key mapped to different shards")
	}
}

func TestDefaultShardCount(t *testing.T) {
	km := New(0)
	if len(km.shards) != defaultShards {
		t.Fatalf("expected %d shards, got %d", defaultShards, len(km.shards))
	}
}
