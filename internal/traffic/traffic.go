package traffic

import (
	"sync"
	"time"
)

// retention bounds how long outcomes are kept; windows longer than this undercount.
const retention = 15 * time.Minute

var defaultTracker Tracker

// Outcome is the result class of one API request.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Denied
)

// RecordSuccess records a successful request on route.
func RecordSuccess(route string) {
	defaultTracker.Record(route, Success)
}

// RecordError records a failed request on route (upstream, lookup or persistence failure).
func RecordError(route string) {
	defaultTracker.Record(route, Failure)
}

// RecordDenied records a rate-limit denial (429).
func RecordDenied(route string) {
	defaultTracker.Record(route, Denied)
}

// RequestCount returns the number of outcomes of any class within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.DenialCount(window)
}

// ErrorRate returns (errorCount, totalCount) within the window. Denials are excluded.
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// RouteErrors returns error counts per route within the window. Routes without errors are omitted.
func RouteErrors(window time.Duration) map[string]int {
	return defaultTracker.RouteErrors(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

type event struct {
	at      time.Time
	route   string
	outcome Outcome
}

// Tracker keeps a time-ordered log of request outcomes.
// Single source of truth for the health check's overload and error-rate decisions.
type Tracker struct {
	mu     sync.Mutex
	events []event
}

// Record appends an outcome for route at the current time.
func (t *Tracker) Record(route string, outcome Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.events = append(t.events, event{at: now, route: route, outcome: outcome})
	t.pruneLocked(now)
}

// RequestCount returns the number of outcomes within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	n := 0
	t.each(window, func(event) { n++ })
	return n
}

// DenialCount returns the number of denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	n := 0
	t.each(window, func(e event) {
		if e.outcome == Denied {
			n++
		}
	})
	return n
}

// ErrorRate returns (errorCount, successCount+errorCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.each(window, func(e event) {
		switch e.outcome {
		case Failure:
			errors++
			total++
		case Success:
			total++
		}
	})
	return errors, total
}

// RouteErrors returns error counts keyed by route within the window.
func (t *Tracker) RouteErrors(window time.Duration) map[string]int {
	out := make(map[string]int)
	t.each(window, func(e event) {
		if e.outcome == Failure {
			out[e.route]++
		}
	})
	return out
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// each calls fn for every event not older than window, oldest first.
func (t *Tracker) each(window time.Duration, fn func(event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for _, e := range t.events {
		if !e.at.Before(cutoff) {
			fn(e)
		}
	}
}

// pruneLocked drops events older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
