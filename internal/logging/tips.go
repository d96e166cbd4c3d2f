package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/dropcue/internal/mains"
	"github.com/linuxmatters/dropcue/internal/processor"
)

// Tip is a single piece of actionable advice derived from an analysis.
type Tip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "fallback_used")
}

// MaxTips is the maximum number of tips to return.
const MaxTips = 4

// droneMinDuration is the shortest accepted beep treated as a possible
// mains drone; answering-machine beeps rarely last longer than half a second.
const droneMinDuration = 1.0

// droneToleranceHz is half the 20 Hz resolution of a 50 ms frame.
const droneToleranceHz = 10.0

// droneMaxHarmonic is the highest mains harmonic treated as hum. With 20 Hz
// bins every multiple of 100 Hz lands on a 50 Hz harmonic, so higher
// harmonics would flag ordinary 1000 Hz beeps.
const droneMaxHarmonic = 12

type tipRule func(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, mainsHz int) *Tip

// GenerateTips inspects an analysis result and returns prioritised hints on
// why the drop landed where it did. mainsHz is the local mains frequency
// (see mains.Frequency). ERROR results get no tips.
func GenerateTips(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, mainsHz int) []Tip {
	if r == nil || r.Trigger == processor.TriggerError {
		return nil
	}
	if cfg == nil {
		cfg = processor.DefaultAnalysisConfig()
	}

	rules := []tipRule{
		tipFallbackUsed,
		tipMainsDrone,
		tipEarlyBeepOnly,
		tipShortRecording,
		tipSilenceTooShort,
		tipQuietInput,
	}

	var tips []Tip
	fired := make(map[string]bool)
	for _, rule := range rules {
		if tip := rule(r, cfg, mainsHz); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})
	if len(tips) > MaxTips {
		tips = tips[:MaxTips]
	}
	return tips
}

// applyExclusions drops tips made redundant by a more specific one.
// A near-silent input explains every other miss on its own.
func applyExclusions(tips []Tip, fired map[string]bool) []Tip {
	var result []Tip
	for _, tip := range tips {
		switch tip.RuleID {
		case "fallback_used", "silence_too_short", "short_recording":
			if fired["quiet_input"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= maxWidth:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"+indent)
}

// tipFallbackUsed fires when no cue was found at all.
func tipFallbackUsed(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, _ int) *Tip {
	if r.Trigger != processor.TriggerFallback {
		return nil
	}
	return &Tip{
		Priority: 9,
		RuleID:   "fallback_used",
		Message: fmt.Sprintf("No beep, pause or speech was found after the first %.1fs, so the drop is %.1fs before the end of the recording. Check the greeting is not clipped.",
			cfg.GuardWindowSeconds, cfg.EndOffset),
	}
}

// tipMainsDrone fires when an accepted beep is long and sits on a low mains
// harmonic, which is more likely line hum than a beep.
func tipMainsDrone(r *processor.AnalysisResult, _ *processor.AnalysisConfig, mainsHz int) *Tip {
	for _, b := range r.Beeps {
		if b.Duration < droneMinDuration {
			continue
		}
		n, ok := mains.Harmonic(b.Frequency, mainsHz, droneToleranceHz)
		if !ok || n > droneMaxHarmonic {
			continue
		}
		return &Tip{
			Priority: 8,
			RuleID:   "mains_drone",
			Message: fmt.Sprintf("The %.1fs tone at %.2fs sits on harmonic %d of %d Hz mains power. It may be line hum rather than a beep; narrow beep_freq_min_hz/beep_freq_max_hz if drops land early.",
				b.Duration, b.Start, n, mainsHz),
		}
	}
	return nil
}

// tipEarlyBeepOnly fires when every beep was inside the guard window.
func tipEarlyBeepOnly(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, _ int) *Tip {
	if len(r.Beeps) == 0 || r.Trigger == processor.TriggerBeep {
		return nil
	}
	b := r.Beeps[len(r.Beeps)-1]
	return &Tip{
		Priority: 7,
		RuleID:   "early_beep_only",
		Message: fmt.Sprintf("A beep at %.2fs was ignored because it started inside the %.1fs guard window. Lower guard_window_seconds if greetings on this line are that short.",
			b.Start, cfg.GuardWindowSeconds),
	}
}

// tipShortRecording fires when the recording barely outlasts the guard window.
func tipShortRecording(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, _ int) *Tip {
	if r.Duration >= cfg.GuardWindowSeconds+1.0 {
		return nil
	}
	return &Tip{
		Priority: 6,
		RuleID:   "short_recording",
		Message:  fmt.Sprintf("The recording is only %.1fs long, leaving little audio after the guard window to find a cue in.", r.Duration),
	}
}

// tipSilenceTooShort fires when a pause after the guard window was close to,
// but shorter than, the minimum drop silence.
func tipSilenceTooShort(r *processor.AnalysisResult, cfg *processor.AnalysisConfig, _ int) *Tip {
	if r.Trigger == processor.TriggerBeep || r.Trigger == processor.TriggerSilence {
		return nil
	}
	for _, s := range r.Silences {
		if s.Start > cfg.GuardWindowSeconds && s.Duration < cfg.MinDropSilence {
			return &Tip{
				Priority: 5,
				RuleID:   "silence_too_short",
				Message: fmt.Sprintf("A %.2fs pause at %.2fs was shorter than min_drop_silence (%.2fs) and was not used as the drop.",
					s.Duration, s.Start, cfg.MinDropSilence),
			}
		}
	}
	return nil
}

// tipQuietInput fires when the input peak stayed below the normalization floor.
func tipQuietInput(r *processor.AnalysisResult, _ *processor.AnalysisConfig, _ int) *Tip {
	if r.InputPeak >= 0.001 {
		return nil
	}
	return &Tip{
		Priority: 10,
		RuleID:   "quiet_input",
		Message:  "The recording is near digital silence, so nothing in it could be analysed. Check the capture path is not muted.",
	}
}
