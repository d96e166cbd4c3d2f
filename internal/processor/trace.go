package processor

import "github.com/rs/zerolog"

// GroupVerdict is the outcome of evaluating a tonal group.
type GroupVerdict string

const (
	GroupAccepted GroupVerdict = "accepted"
	GroupRejected GroupVerdict = "rejected"
	GroupTooShort GroupVerdict = "too_short"
)

// GroupEvent describes one tonal group evaluation.
type GroupEvent struct {
	Start      float64
	End        float64
	Duration   float64
	Chunks     int
	MeanFreq   float64
	StdDev     float64
	MeanPurity float64
	MaxPurity  float64
	Verdict    GroupVerdict
}

// Tracer receives diagnostic events from an analysis. Events for frames are
// delivered in ascending time order from a single goroutine.
// Implementations must not retain the Frame beyond the call.
type Tracer interface {
	FrameComputed(f Frame)
	GroupEvaluated(e GroupEvent)
}

// nopTracer discards everything; it is the default so the core stays silent.
type nopTracer struct{}

func (nopTracer) FrameComputed(Frame)       {}
func (nopTracer) GroupEvaluated(GroupEvent) {}

// LogTracer writes trace events as structured zerolog records.
type LogTracer struct {
	log    zerolog.Logger
	frames bool
}

// NewLogTracer returns a tracer logging group evaluations at debug level.
// When frames is true, every spectrally analysed frame is logged at trace level.
func NewLogTracer(log zerolog.Logger, frames bool) *LogTracer {
	return &LogTracer{log: log, frames: frames}
}

func (t *LogTracer) FrameComputed(f Frame) {
	if !t.frames || !f.Spectral {
		return
	}
	t.log.Trace().
		Float64("t", f.Start).
		Float64("energy", f.Energy).
		Float64("freq", f.Frequency).
		Float64("purity", f.Purity).
		Msg("frame")
}

func (t *LogTracer) GroupEvaluated(e GroupEvent) {
	t.log.Debug().
		Str("verdict", string(e.Verdict)).
		Float64("start", e.Start).
		Float64("end", e.End).
		Float64("freq", e.MeanFreq).
		Float64("std", e.StdDev).
		Float64("purity_avg", e.MeanPurity).
		Float64("purity_max", e.MaxPurity).
		Int("chunks", e.Chunks).
		Msg("group")
}
