// Package logging writes what an analysis found: per-file text reports,
// JSON exports, plain-text tables and tips.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/dropcue/internal/audio"
	"github.com/linuxmatters/dropcue/internal/processor"
)

// ReportData contains all the information needed to generate an analysis report
type ReportData struct {
	InputPath string
	StartTime time.Time
	EndTime   time.Time
	Metadata  *audio.Metadata // nil when decoding failed
	Result    *processor.AnalysisResult
	Config    *processor.AnalysisConfig
	MainsHz   int
}

// ReportPath returns the report location for an input file:
// greeting.wav → greeting-dropcue.log, next to the input.
func ReportPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-dropcue.log"
}

// GenerateReport writes a detailed analysis report next to the input file
// and returns its path.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Drop Decision - trigger, timestamp, confidence
// 3. Beeps - accepted tonal groups
// 4. Silences - closed quiet intervals
// 5. Diagnostics - frame and group counts, speech end, trailing silence
// 6. Tips
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.InputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", err
	}
	return logPath, nil
}

// WriteReport renders the report to w.
func WriteReport(w io.Writer, data ReportData) error {
	ew := &errWriter{w: w}

	writeReportHeader(ew, data)
	if data.Result == nil {
		fmt.Fprintln(ew, "No analysis result.")
		return ew.err
	}

	cfg := data.Config
	if cfg == nil {
		cfg = processor.DefaultAnalysisConfig()
	}

	writeDecision(ew, data.Result)
	if data.Result.Trigger == processor.TriggerError {
		return ew.err
	}
	writeBeepTable(ew, data.Result)
	writeSilenceTable(ew, data.Result, cfg)
	writeDiagnostics(ew, data.Result)
	writeTips(ew, GenerateTips(data.Result, cfg, data.MainsHz))

	return ew.err
}

// errWriter remembers the first write error so section writers stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Dropcue Analysis Report")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Analysed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if m := data.Metadata; m != nil {
		if m.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", m.Title)
		}
		fmt.Fprintf(w, "Format: %s, %d Hz, %d-bit, %s\n", strings.ToUpper(m.Format), m.SampleRate, m.BitDepth, channelName(m.Channels))
		fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(m.Duration*float64(time.Second))))
	}
	if !data.StartTime.IsZero() && !data.EndTime.IsZero() {
		fmt.Fprintf(w, "Analysis time: %s\n", formatDuration(data.EndTime.Sub(data.StartTime)))
	}
	fmt.Fprintln(w, "")
}

// writeDecision outputs the drop timestamp and the evidence behind it.
func writeDecision(w io.Writer, r *processor.AnalysisResult) {
	writeSection(w, "Drop Decision")
	fmt.Fprintf(w, "Trigger:    %s\n", r.Trigger.Label())
	if r.Trigger != processor.TriggerError {
		fmt.Fprintf(w, "Drop at:    %.3fs\n", r.DropTimestamp)
	}
	fmt.Fprintf(w, "Confidence: %s\n", formatPercent(r.Confidence))
	fmt.Fprintf(w, "Details:    %s\n", r.Details)
	fmt.Fprintln(w, "")
}

func writeBeepTable(w io.Writer, r *processor.AnalysisResult) {
	writeSection(w, "Beeps")
	if len(r.Beeps) == 0 {
		fmt.Fprintln(w, "None detected")
		fmt.Fprintln(w, "")
		return
	}
	t := NewTable("#", "Start", "End", "Length", "Frequency", "Purity")
	for i, b := range r.Beeps {
		t.AddRow(fmt.Sprintf("%d", i+1), formatSeconds(b.Start), formatSeconds(b.End),
			formatSeconds(b.Duration), formatHz(b.Frequency), formatMetric(b.Purity, 3))
	}
	fmt.Fprint(w, t.String())
	fmt.Fprintln(w, "")
}

func writeSilenceTable(w io.Writer, r *processor.AnalysisResult, cfg *processor.AnalysisConfig) {
	writeSection(w, "Silences")
	if len(r.Silences) == 0 {
		fmt.Fprintln(w, "None detected")
		fmt.Fprintln(w, "")
		return
	}
	t := NewTable("#", "Start", "End", "Length", "Note")
	t.LeftAlign = map[int]bool{4: true}
	for i, s := range r.Silences {
		note := ""
		switch {
		case s.Start <= cfg.GuardWindowSeconds:
			note = "inside guard window"
		case s.Duration < cfg.MinDropSilence:
			note = "too short to drop"
		}
		t.AddRow(fmt.Sprintf("%d", i+1), formatSeconds(s.Start), formatSeconds(s.End()), formatSeconds(s.Duration), note)
	}
	fmt.Fprint(w, t.String())
	fmt.Fprintln(w, "")
}

func writeDiagnostics(w io.Writer, r *processor.AnalysisResult) {
	writeSection(w, "Diagnostics")
	fmt.Fprintf(w, "Frames analysed:   %d\n", r.Frames)
	fmt.Fprintf(w, "Tonal candidates:  %d\n", r.TonalCandidates)
	fmt.Fprintf(w, "Groups evaluated:  %d (%d accepted)\n", r.GroupsEvaluated, len(r.Beeps))
	fmt.Fprintf(w, "Input peak:        %s\n", formatMetric(r.InputPeak, 4))
	if r.SpeechEndTime > 0 {
		fmt.Fprintf(w, "Speech ended:      %s\n", formatSeconds(r.SpeechEndTime))
	} else {
		fmt.Fprintln(w, "Speech ended:      no speech detected")
	}
	if ts := r.TrailingSilence; ts != nil {
		fmt.Fprintf(w, "Trailing silence:  %s from %s (not used)\n", formatSeconds(ts.Duration), formatSeconds(ts.Start))
	}
	fmt.Fprintln(w, "")
}

func writeTips(w io.Writer, tips []Tip) {
	if len(tips) == 0 {
		return
	}
	writeSection(w, "Tips")
	for _, tip := range tips {
		fmt.Fprintf(w, "- %s\n", wrapText(tip.Message, 76, "  "))
	}
	fmt.Fprintln(w, "")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// SummaryTable renders one row per file for the --plain output.
func SummaryTable(results []processor.FileResult) string {
	t := NewTable("File", "Drop", "Trigger", "Confidence", "Details")
	t.LeftAlign = map[int]bool{2: true, 4: true}
	for _, fr := range results {
		name := filepath.Base(fr.Path)
		if fr.Skipped() {
			t.AddRow(name, "", "SKIPPED", "", "cancelled")
			continue
		}
		r := fr.Result
		drop := ""
		if r.Trigger != processor.TriggerError {
			drop = fmt.Sprintf("%.3fs", r.DropTimestamp)
		}
		t.AddRow(name, drop, r.Trigger.Label(), formatPercent(r.Confidence), r.Details)
	}
	return t.String()
}
