package service

import (
	"sync"
	"testing"
)

func TestMissTracker_BeginEnd(t *testing.T) {
	mt := newMissTracker()
	q := "seattle"

	if got := mt.Begin(q); got != 1 {
		t.Errorf("Begin first = %d, want 1", got)
	}
	if got := mt.Begin(q); got != 2 {
		t.Errorf("Begin second = %d, want 2", got)
	}

	mt.End(q)
	if got := mt.Begin(q); got != 2 {
		t.Errorf("after one End, Begin = %d, want 2", got)
	}
	mt.End(q)
	mt.End(q)
	if got := mt.Begin(q); got != 1 {
		t.Errorf("after all End, Begin = %d, want 1", got)
	}
	mt.End(q)

	if mt.Len() != 0 {
		t.Errorf("Len() = %d, want 0", mt.Len())
	}
}

func TestMissTracker_EndUnknownIsNoop(t *testing.T) {
	mt := newMissTracker()
	mt.End("never-begun")
	if mt.Len() != 0 {
		t.Errorf("Len() = %d, want 0", mt.Len())
	}
}

func TestMissTracker_Concurrent(t *testing.T) {
	mt := newMissTracker()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mt.Begin("boston")
			mt.End("boston")
		}()
	}
	wg.Wait()
	if mt.Len() != 0 {
		t.Errorf("Len() = %d after balanced calls, want 0", mt.Len())
	}
}
