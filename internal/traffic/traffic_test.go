package traffic

import (
	"testing"
	"time"
)

// TestRequestCount_Empty verifies that RequestCount returns 0 when nothing
// has been recorded within the window.
func TestRequestCount_Empty(t *testing.T) {
	Reset()
	if n := RequestCount(1 * time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

func TestRecordSuccess_AndRequestCount(t *testing.T) {
	Reset()
	RecordSuccess("/location")
	RecordSuccess("/weather")
	if n := RequestCount(1 * time.Minute); n != 2 {
		t.Errorf("RequestCount() = %d, want 2", n)
	}
}

// TestRecordDenied_AndCounts verifies that denials count toward both
// DenialCount and RequestCount.
func TestRecordDenied_AndCounts(t *testing.T) {
	Reset()
	RecordDenied("/yelp")
	RecordDenied("/yelp")
	if n := DenialCount(1 * time.Minute); n != 2 {
		t.Errorf("DenialCount() = %d, want 2", n)
	}
	if n := RequestCount(1 * time.Minute); n != 2 {
		t.Errorf("RequestCount() = %d, want 2", n)
	}
}

func TestErrorRate_SuccessAndError(t *testing.T) {
	Reset()
	RecordSuccess("/weather")
	RecordSuccess("/weather")
	RecordError("/weather")
	errors, total := ErrorRate(1 * time.Minute)
	if errors != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errors, total)
	}
}

// TestErrorRate_DeniedExcluded verifies that denials do not count toward the
// error-rate denominator.
func TestErrorRate_DeniedExcluded(t *testing.T) {
	Reset()
	RecordSuccess("/movies")
	RecordDenied("/movies")
	RecordDenied("/movies")
	errors, total := ErrorRate(1 * time.Minute)
	if errors != 0 || total != 1 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 1) - denied excluded from error rate", errors, total)
	}
}

func TestRouteErrors(t *testing.T) {
	Reset()
	RecordError("/weather")
	RecordError("/weather")
	RecordError("/yelp")
	RecordSuccess("/location")
	got := RouteErrors(time.Minute)
	if got["/weather"] != 2 || got["/yelp"] != 1 {
		t.Errorf("RouteErrors() = %v, want /weather:2 /yelp:1", got)
	}
	if _, ok := got["/location"]; ok {
		t.Error("RouteErrors() should omit routes without errors")
	}
}

func TestTracker_WindowExcludesOldEvents(t *testing.T) {
	var tr Tracker
	tr.events = []event{{at: time.Now().Add(-2 * time.Minute), route: "/trails", outcome: Failure}}
	tr.Record("/trails", Success)
	errors, total := tr.ErrorRate(time.Minute)
	if errors != 0 || total != 1 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 1)", errors, total)
	}
}

func TestTracker_PruneDropsExpired(t *testing.T) {
	var tr Tracker
	tr.events = []event{{at: time.Now().Add(-retention - time.Minute), route: "/trails", outcome: Failure}}
	tr.Record("/trails", Success)
	if len(tr.events) != 1 {
		t.Errorf("len(events) = %d after prune, want 1", len(tr.events))
	}
}

func TestReset(t *testing.T) {
	Reset()
	RecordSuccess("/location")
	RecordError("/location")
	RecordDenied("/location")
	Reset()
	if n := RequestCount(1 * time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
	errors, total := ErrorRate(1 * time.Minute)
	if errors != 0 || total != 0 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 0)", errors, total)
	}
}
