package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("9f2c") {
		t.Error("first Add should return true")
	}
	if s.Add("9f2c") {
		t.Error("second Add of same key should return false")
	}
	if !s.Contains("9f2c") {
		t.Error("Contains should report an added key")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("same-fingerprint") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	pool := NewWorkerPool(1, interval)

	var mu sync.Mutex
	var starts []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(starts) != 3 {
		t.Fatalf("expected 3 job starts, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestWorkerPoolSubmitBlocksWhenFull(t *testing.T) {
	pool := NewWorkerPool(1, 0)
	release := make(chan struct{})
	pool.Submit(func() { <-release })

	submitted := make(chan struct{})
	go func() {
		pool.Submit(func() {})
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit returned while the only worker was busy")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit did not return after the worker was freed")
	}
	pool.Wait()
}
