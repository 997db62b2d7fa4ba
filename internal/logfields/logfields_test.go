package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"StopwatchID", KeyStopwatchID, "a1b2c3", StopwatchID("a1b2c3")},
		{"Name", KeyName, "work", Name("work")},
		{"Identifier", KeyIdentifier, "wo", Identifier("wo")},
		{"Command", KeyCommand, "lap", Command("lap")},
		{"State", KeyState, "paused", State("paused")},
		{"Socket", KeySocket, "/tmp/s.sock", Socket("/tmp/s.sock")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"RemoteAddr", KeyRemoteAddr, "@", RemoteAddr("@")},
		{"EventType", KeyEventType, "lapped", EventType("lapped")},
		{"Subject", KeySubject, "stopwatchd.events", Subject("stopwatchd.events")},
		{"JobID", KeyJobID, "j1", JobID("j1")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr: %v", a)
	}
	if a := PID(42); a.Key != KeyPID || a.Value.Int64() != 42 {
		t.Fatalf("unexpected pid attr: %v", a)
	}
	if a := Elapsed(1500 * time.Microsecond); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected elapsed attr: %v", a)
	}
}
