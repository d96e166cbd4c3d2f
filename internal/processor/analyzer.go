// Package processor locates the drop timestamp in voicemail greetings:
// the point after which an automated caller can start speaking without
// talking over the greeting or missing its end-of-greeting cue.
package processor

import (
	"fmt"
)

// PCM is decoded audio as handed over by the decoding layer.
type PCM struct {
	Samples    []float32 // interleaved, nominally within [-1, 1]
	Channels   int
	SampleRate uint32
	Duration   float64 // seconds; derived from the samples when <= 0
}

// AnalysisResult is the outcome of analysing one recording.
type AnalysisResult struct {
	Beeps         []Beep            `json:"beeps"`
	Silences      []SilenceInterval `json:"silences"`
	SpeechEndTime float64           `json:"speech_end"`
	DropTimestamp float64           `json:"drop_timestamp"`
	Trigger       TriggerType       `json:"trigger"`
	Confidence    float64           `json:"confidence"` // 0..1
	Details       string            `json:"details"`
	Duration      float64           `json:"duration"`

	// Diagnostics
	Frames          int              `json:"frames"`
	TonalCandidates int              `json:"tonal_candidates"`
	GroupsEvaluated int              `json:"groups_evaluated"`
	TrailingSilence *SilenceInterval `json:"trailing_silence,omitempty"` // open at end of input, never a drop cue
	InputPeak       float64          `json:"input_peak"`
}

// ErrorResult builds the ERROR-kind result used for inputs that cannot be analysed.
func ErrorResult(details string) *AnalysisResult {
	return &AnalysisResult{
		Trigger:    TriggerError,
		Confidence: 0,
		Details:    details,
	}
}

// Option customises a single analysis.
type Option func(*analysisOptions)

type analysisOptions struct {
	tracer  Tracer
	workers int
	set     bool
}

// WithTracer receives frame and group events during the analysis.
func WithTracer(t Tracer) Option {
	return func(o *analysisOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithWorkers overrides AnalysisConfig.Workers for this analysis.
func WithWorkers(n int) Option {
	return func(o *analysisOptions) {
		o.workers = n
		o.set = true
	}
}

// Analyze runs the full drop analysis over one decoded recording.
//
// An invalid configuration is a programming error and is returned as an
// error before any work starts. Structurally invalid input (no sample rate,
// no channels, truncated interleaving) yields an ERROR-kind result. Content
// never fails: silent or noise-only recordings resolve through the cascade,
// usually to the fallback.
func Analyze(pcm PCM, cfg *AnalysisConfig, opts ...Option) (*AnalysisResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := analysisOptions{tracer: nopTracer{}}
	for _, opt := range opts {
		opt(&o)
	}
	workers := cfg.Workers
	if o.set {
		workers = o.workers
	}

	switch {
	case pcm.SampleRate == 0:
		return ErrorResult("invalid sample rate: 0 Hz"), nil
	case pcm.Channels < 1:
		return ErrorResult(fmt.Sprintf("invalid channel count: %d", pcm.Channels)), nil
	case len(pcm.Samples)%pcm.Channels != 0:
		return ErrorResult(fmt.Sprintf("sample count %d is not a multiple of %d channels", len(pcm.Samples), pcm.Channels)), nil
	}

	buf := Normalize(pcm.Samples, pcm.Channels, int(pcm.SampleRate))
	duration := pcm.Duration
	if duration <= 0 {
		duration = buf.Duration
	}

	framer := NewFramer(buf, cfg.FrameDurationMs, cfg.HopRatio)
	est := NewSpectralEstimator(buf.SampleRate, framer.FrameLength(), cfg.AnalysisBandMinHz, cfg.AnalysisBandMaxHz)
	frames := extractFeatures(framer, est, cfg.BeepEnergyMin, workers)

	silence := NewSilenceTracker(cfg.SilenceEnergyThreshold, cfg.SpeechEnergyThreshold, cfg.MinSilenceDuration)
	grouper := NewTonalGrouper(cfg, framer.HopSeconds(), o.tracer)

	candidates := 0
	for _, f := range frames {
		o.tracer.FrameComputed(f)
		silence.Observe(f.Start, f.Energy)
		if c, ok := tonalCandidate(f, cfg); ok {
			candidates++
			grouper.Add(c)
		}
	}
	beeps := grouper.Finish()

	decision := Decide(beeps, silence.Intervals(), silence.SpeechEnd(), duration, cfg)

	result := &AnalysisResult{
		Beeps:           beeps,
		Silences:        silence.Intervals(),
		SpeechEndTime:   silence.SpeechEnd(),
		DropTimestamp:   decision.DropTimestamp,
		Trigger:         decision.Trigger,
		Confidence:      decision.Confidence,
		Details:         decision.Details,
		Duration:        duration,
		Frames:          len(frames),
		TonalCandidates: candidates,
		GroupsEvaluated: grouper.Evaluated(),
		InputPeak:       buf.Peak,
	}
	if trailing, ok := silence.Trailing(); ok {
		result.TrailingSilence = &trailing
	}
	return result, nil
}
