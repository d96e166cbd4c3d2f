package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// DebugLogName is the diagnostics file written by --debug in the working directory.
const DebugLogName = "dropcue-debug.log"

// OpenDebugLog creates or truncates path and returns a logger that writes
// plain console-formatted records to it. Trace records (per-frame
// spectral values) are only kept when level is zerolog.TraceLevel. The
// caller closes the returned io.Closer when done.
func OpenDebugLog(path string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	f, err := os.Create(path)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create debug log: %w", err)
	}

	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}

	cw := zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	log := zerolog.New(cw).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return log, f, nil
}
