package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"not found", NotFoundError("no match").Build(), 3},
		{"ambiguous", AmbiguousError("too many").Build(), 4},
		{"config", ConfigError("bad yaml").Build(), 7},
		{"transport", TransportError("dial").Build(), 8},
		{"protocol", ProtocolError("decode").Build(), 9},
		{"daemon", DaemonError("listen").Build(), 12},
		{"unclassified error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	userErr := NotFoundError(`no stopwatch matches "w"`).Build()
	if got := quiet.FormatError(userErr); got != `Error: no stopwatch matches "w"` {
		t.Errorf("unexpected user-facing format: %q", got)
	}

	sysErr := WrapError(errors.New("refused"), CategoryTransport, "dial daemon").Build()
	if got := quiet.FormatError(sysErr); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint to use -v, got %q", got)
	}
	if got := verbose.FormatError(sysErr); !strings.Contains(got, "refused") {
		t.Errorf("expected verbose format to include cause, got %q", got)
	}
	if got := quiet.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected unclassified format: %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(AmbiguousError(`"dup" matches 2 stopwatches`).Build())

	if code != 4 {
		t.Errorf("expected exit code 4, got %d", code)
	}
	if !strings.Contains(out.String(), `"dup" matches 2 stopwatches`) {
		t.Errorf("expected message on stderr, got %q", out.String())
	}
}
