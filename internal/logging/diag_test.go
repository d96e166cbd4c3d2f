package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpenDebugLog(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	path := filepath.Join(t.TempDir(), DebugLogName)
	log, closer, err := OpenDebugLog(path, zerolog.TraceLevel)
	if err != nil {
		t.Fatalf("OpenDebugLog() error: %v", err)
	}

	log.Trace().Float64("t", 3.5).Msg("frame")
	log.Debug().Str("verdict", "accepted").Msg("group")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"TRC frame", "t=3.5", "DBG group", "verdict=accepted", "pid="} {
		if !strings.Contains(out, want) {
			t.Errorf("debug log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("debug log contains colour escapes")
	}
}

func TestOpenDebugLogBadPath(t *testing.T) {
	_, _, err := OpenDebugLog(filepath.Join(t.TempDir(), "missing", "debug.log"), zerolog.DebugLevel)
	if err == nil {
		t.Fatal("expected an error")
	}
}
