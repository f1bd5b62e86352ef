package service

import (
	"sync"
)

// missTracker counts in-flight misses per query. An overlap (count > 1) means
// two requests are geocoding the same query at once and may both insert.
type missTracker struct {
	mu       sync.Mutex
	inFlight map[string]int
}

func newMissTracker() *missTracker {
	return &missTracker{
		inFlight: make(map[string]int),
	}
}

// Begin records a miss for query and returns the in-flight count including it.
// Callers must call End(query) once the miss is resolved.
func (mt *missTracker) Begin(query string) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.inFlight[query]++
	return mt.inFlight[query]
}

func (mt *missTracker) End(query string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if n, ok := mt.inFlight[query]; ok {
		if n <= 1 {
			delete(mt.inFlight, query)
			return
		}
		mt.inFlight[query] = n - 1
	}
}

func (mt *missTracker) Len() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.inFlight)
}
