package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/dropcue/internal/audio"
	"github.com/linuxmatters/dropcue/internal/processor"
)

func TestReportPath(t *testing.T) {
	tests := map[string]string{
		"greeting.wav":         "greeting-dropcue.log",
		"/calls/alice.flac":    "/calls/alice-dropcue.log",
		"no-extension":         "no-extension-dropcue.log",
		"dir.d/take.2.final.w": "dir.d/take.2.final-dropcue.log",
	}
	for in, want := range tests {
		if got := ReportPath(in); got != want {
			t.Errorf("ReportPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	data := ReportData{
		InputPath: "/calls/alice.wav",
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
		Metadata:  &audio.Metadata{Duration: 8, SampleRate: 8000, Channels: 1, Format: "wav", BitDepth: 16, Title: "Support line"},
		Result: &processor.AnalysisResult{
			Beeps:           []processor.Beep{{Start: 5.1, End: 5.5, Duration: 0.4, Frequency: 1000, Purity: 0.91}},
			Silences:        []processor.SilenceInterval{{Start: 1.0, Duration: 0.6}, {Start: 3.5, Duration: 0.55}},
			SpeechEndTime:   4.9,
			DropTimestamp:   5.5,
			Trigger:         processor.TriggerBeep,
			Confidence:      0.95,
			Details:         "Beep at 5.10s (1000 Hz)",
			Duration:        8,
			Frames:          319,
			TonalCandidates: 17,
			GroupsEvaluated: 2,
			InputPeak:       0.42,
			TrailingSilence: &processor.SilenceInterval{Start: 5.6, Duration: 2.35},
		},
		MainsHz: 50,
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, data); err != nil {
		t.Fatalf("WriteReport() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Dropcue Analysis Report",
		"File: alice.wav",
		"Title: Support line",
		"Format: WAV, 8000 Hz, 16-bit, mono",
		"Analysis time: 1.5s",
		"Trigger:    BEEP",
		"Drop at:    5.500s",
		"Confidence: 95%",
		"1000 Hz",
		"inside guard window",
		"too short to drop",
		"Groups evaluated:  2 (1 accepted)",
		"Speech ended:      4.90s",
		"Trailing silence:  2.35s from 5.60s (not used)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, ReportData{
		InputPath: "broken.wav",
		Result:    processor.ErrorResult("Analysis failed: unsupported audio format"),
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Trigger:    ERROR") || strings.Contains(out, "Drop at:") {
		t.Errorf("unexpected error report:\n%s", out)
	}
	if strings.Contains(out, "Beeps") {
		t.Errorf("error report has analysis sections:\n%s", out)
	}
}

func TestGenerateReport(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bob.flac")
	path, err := GenerateReport(ReportData{
		InputPath: input,
		EndTime:   time.Now(),
		Result: &processor.AnalysisResult{
			Trigger:       processor.TriggerFallback,
			DropTimestamp: 1.5,
			Confidence:    0.4,
			Details:       "End of audio fallback",
			Duration:      2,
			InputPeak:     0.3,
		},
	})
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if path != strings.TrimSuffix(input, ".flac")+"-dropcue.log" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Tips") {
		t.Errorf("fallback report has no tips:\n%s", data)
	}
}

func TestSummaryTable(t *testing.T) {
	results := []processor.FileResult{
		{Path: "/calls/alice.wav", Result: &processor.AnalysisResult{
			DropTimestamp: 3.8, Trigger: processor.TriggerBeep, Confidence: 0.95, Details: "Beep at 3.48s (1000 Hz)",
		}},
		{Path: "/calls/broken.wav", Result: processor.ErrorResult("Analysis failed: bad header")},
		{Path: "/calls/late.wav", Err: context.Canceled},
	}

	out := SummaryTable(results)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want header, rule and 3 rows:\n%s", len(lines), out)
	}
	for _, want := range []string{"alice.wav", "3.800s", "BEEP", "95%", "ERROR", "Analysis failed: bad header", "SKIPPED"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
