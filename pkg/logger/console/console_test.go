package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/netexplorer/pkg/logger"
)

func TestConsoleLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		wantSeen bool
	}{
		{name: "debug hidden at info level", debug: false, wantSeen: false},
		{name: "debug shown at debug level", debug: true, wantSeen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewConsoleLogger(ConsoleLoggerParams{Debug: tt.debug, Output: &buf})
			l.Debug("probe", "k", "v")
			if got := strings.Contains(buf.String(), "probe"); got != tt.wantSeen {
				t.Fatalf("debug output seen = %v, want %v (%q)", got, tt.wantSeen, buf.String())
			}
		})
	}
}

func TestLoggerWithCarriesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(NewConsoleLogger(ConsoleLoggerParams{JSON: true, Output: &buf}))
	defer logger.Init()

	logger.With("snapshot_id", "abc").Info("published", "nodes", 3)

	out := buf.String()
	for _, want := range []string{`"snapshot_id":"abc"`, `"nodes":3`, `"msg":"published"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
}
