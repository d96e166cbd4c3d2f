package processor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestAnalyzeFile(t *testing.T) {
	path := writeTestWAV(t, beepGreeting(), "beep.wav")

	result, meta, err := AnalyzeFile(path, DefaultAnalysisConfig())
	if err != nil {
		t.Fatalf("AnalyzeFile() error: %v", err)
	}
	if meta.Format != "wav" || meta.SampleRate != testRate || meta.Channels != 1 {
		t.Errorf("metadata = %+v", meta)
	}
	if !approxEqual(meta.Duration, 6, 1e-9) {
		t.Errorf("Duration = %g, want 6", meta.Duration)
	}
	if result.Trigger != TriggerBeep || !approxEqual(result.DropTimestamp, 3.8, 0.05) {
		t.Errorf("result = %s@%.3f (%s), want beep near 3.8", result.Trigger, result.DropTimestamp, result.Details)
	}
}

func TestAnalyzeFileUndecodable(t *testing.T) {
	path := writeGarbage(t, "notes.wav")

	result, meta, err := AnalyzeFile(path, DefaultAnalysisConfig())
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if meta != nil {
		t.Errorf("metadata = %+v, want nil", meta)
	}
	if result == nil || result.Trigger != TriggerError {
		t.Fatalf("result = %+v, want ERROR result", result)
	}
	if !strings.HasPrefix(result.Details, "Analysis failed: ") {
		t.Errorf("Details = %q", result.Details)
	}
}

func TestAnalyzeFiles(t *testing.T) {
	paths := []string{
		writeTestWAV(t, beepGreeting(), "beep.wav"),
		writeGarbage(t, "broken.wav"),
		writeTestWAV(t, pausedGreeting(), "pause.wav"),
	}

	for _, jobs := range []int{1, 3} {
		var (
			mu     sync.Mutex
			stages = map[FileStage]int{}
		)
		results, err := AnalyzeFiles(context.Background(), paths, DefaultAnalysisConfig(), BatchOptions{
			Jobs: jobs,
			Progress: func(ev FileEvent) {
				mu.Lock()
				stages[ev.Stage]++
				mu.Unlock()
			},
		})
		if err != nil {
			t.Fatalf("jobs=%d: AnalyzeFiles() error: %v", jobs, err)
		}
		if len(results) != len(paths) {
			t.Fatalf("jobs=%d: got %d results, want %d", jobs, len(results), len(paths))
		}

		want := []TriggerType{TriggerBeep, TriggerError, TriggerSilence}
		for i, r := range results {
			if r.Index != i || r.Path != paths[i] {
				t.Errorf("jobs=%d: result %d is for %d/%s", jobs, i, r.Index, r.Path)
			}
			if r.Result == nil {
				t.Fatalf("jobs=%d: result %d skipped", jobs, i)
			}
			if r.Result.Trigger != want[i] {
				t.Errorf("jobs=%d: result %d trigger = %s, want %s", jobs, i, r.Result.Trigger, want[i])
			}
		}
		if results[1].Err == nil || results[1].Metadata != nil {
			t.Errorf("jobs=%d: broken file result = %+v", jobs, results[1])
		}
		if got := ErrorCount(results); got != 1 {
			t.Errorf("jobs=%d: ErrorCount() = %d, want 1", jobs, got)
		}

		if stages[FileStarted] != 3 || stages[FileDecoded] != 2 || stages[FileCompleted] != 3 {
			t.Errorf("jobs=%d: progress stages = %v", jobs, stages)
		}
	}
}

func TestAnalyzeFilesCancelledBeforeStart(t *testing.T) {
	paths := []string{
		writeTestWAV(t, beepGreeting(), "a.wav"),
		writeTestWAV(t, beepGreeting(), "b.wav"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := AnalyzeFiles(ctx, paths, DefaultAnalysisConfig(), BatchOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	for i, r := range results {
		if !r.Skipped() || !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d = %+v, want skipped with context.Canceled", i, r)
		}
	}
}

func TestAnalyzeFilesCancelledMidway(t *testing.T) {
	paths := []string{
		writeTestWAV(t, pausedGreeting(), "a.wav"),
		writeTestWAV(t, pausedGreeting(), "b.wav"),
		writeTestWAV(t, pausedGreeting(), "c.wav"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := AnalyzeFiles(ctx, paths, DefaultAnalysisConfig(), BatchOptions{
		Jobs: 1,
		Progress: func(ev FileEvent) {
			if ev.Stage == FileCompleted && ev.Index == 0 {
				cancel()
			}
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if results[0].Skipped() || results[0].Result.Trigger != TriggerSilence {
		t.Errorf("completed result lost: %+v", results[0])
	}
	for _, r := range results[1:] {
		if !r.Skipped() {
			t.Errorf("result %d ran after cancellation", r.Index)
		}
	}
	if got := ErrorCount(results); got != 2 {
		t.Errorf("ErrorCount() = %d, want 2", got)
	}
}

func TestAnalyzeFilesInvalidConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.FrameDurationMs = -5

	results, err := AnalyzeFiles(context.Background(), []string{"unused.wav"}, cfg, BatchOptions{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
	if results != nil {
		t.Errorf("results = %+v, want nil", results)
	}
}
