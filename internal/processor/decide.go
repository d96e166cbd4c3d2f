package processor

import (
	"fmt"
	"math"
	"strings"
)

// TriggerType names the evidence that produced a drop timestamp.
type TriggerType string

const (
	TriggerBeep      TriggerType = "beep"
	TriggerSilence   TriggerType = "silence"
	TriggerSpeechEnd TriggerType = "speech_end"
	TriggerFallback  TriggerType = "fallback"
	TriggerError     TriggerType = "error"
)

// Confidence assigned to each trigger
const (
	confidenceBeep      = 0.95
	confidenceSilence   = 0.75
	confidenceSpeechEnd = 0.60
	confidenceFallback  = 0.40
)

func (t TriggerType) String() string {
	return string(t)
}

// Label returns the upper-case display name, e.g. "SPEECH_END".
func (t TriggerType) Label() string {
	return strings.ToUpper(string(t))
}

// Decision is the outcome of the drop cascade.
type Decision struct {
	DropTimestamp float64
	Trigger       TriggerType
	Confidence    float64
	Details       string
}

// Decide applies the fixed-priority rule set: a late beep beats a late
// silence, which beats the end of speech, which beats the end-of-file
// fallback. Cues starting inside the guard window are ignored.
//
// beeps and silences must be ordered by start time.
func Decide(beeps []Beep, silences []SilenceInterval, speechEnd, duration float64, cfg *AnalysisConfig) Decision {
	guard := cfg.GuardWindowSeconds

	// Priority 1: the latest beep after the guard window
	for i := len(beeps) - 1; i >= 0; i-- {
		b := beeps[i]
		if b.Start > guard {
			return Decision{
				DropTimestamp: b.End,
				Trigger:       TriggerBeep,
				Confidence:    confidenceBeep,
				Details:       fmt.Sprintf("Beep at %.2fs (%d Hz)", b.Start, int(math.Round(b.Frequency))),
			}
		}
	}

	// Priority 2: the earliest long silence after the guard window
	for _, s := range silences {
		if s.Start > guard && s.Duration >= cfg.MinDropSilence {
			return Decision{
				DropTimestamp: s.Start + cfg.PostSilenceOffset,
				Trigger:       TriggerSilence,
				Confidence:    confidenceSilence,
				Details:       fmt.Sprintf("Silence at %.2fs (%.2fs)", s.Start, s.Duration),
			}
		}
	}

	// Priority 3: speech ended after the guard window
	if speechEnd > guard {
		return Decision{
			DropTimestamp: speechEnd + cfg.PostSpeechOffset,
			Trigger:       TriggerSpeechEnd,
			Confidence:    confidenceSpeechEnd,
			Details:       fmt.Sprintf("Speech ended at %.2fs", speechEnd),
		}
	}

	return Decision{
		DropTimestamp: math.Max(0, duration-cfg.EndOffset),
		Trigger:       TriggerFallback,
		Confidence:    confidenceFallback,
		Details:       "End of audio fallback",
	}
}
