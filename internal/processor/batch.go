package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/linuxmatters/dropcue/internal/audio"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome for one input file of a batch.
type FileResult struct {
	Index    int
	Path     string
	Result   *AnalysisResult // nil when the file was never started
	Metadata *audio.Metadata // nil when decoding failed
	Elapsed  time.Duration
	Err      error // decode failure, or the context error for files never started
}

// Skipped reports whether the file was not analysed because the batch was cancelled.
func (fr FileResult) Skipped() bool {
	return fr.Result == nil
}

// FileStage identifies a progress event.
type FileStage int

const (
	FileStarted FileStage = iota
	FileDecoded
	FileCompleted
)

// FileEvent is delivered to BatchOptions.Progress.
type FileEvent struct {
	Index    int
	Path     string
	Stage    FileStage
	Metadata *audio.Metadata // set from FileDecoded on
	Result   *FileResult     // set on FileCompleted
}

// BatchOptions configures AnalyzeFiles.
type BatchOptions struct {
	Jobs     int             // files analysed concurrently; <= 1 processes files in order
	Progress func(FileEvent) // optional; may be called from several goroutines when Jobs > 1
	Tracer   Tracer          // optional; shared by every file, must be safe for concurrent use when Jobs > 1
}

// AnalyzeFile decodes and analyses a single file.
//
// A decode failure is reported twice: as an ERROR-kind result (so callers
// can treat every file uniformly) and as the returned error. Only an invalid
// configuration returns a nil result.
func AnalyzeFile(path string, cfg *AnalysisConfig, opts ...Option) (*AnalysisResult, *audio.Metadata, error) {
	return analyzeFile(path, cfg, nil, opts...)
}

func analyzeFile(path string, cfg *AnalysisConfig, decoded func(*audio.Metadata), opts ...Option) (*AnalysisResult, *audio.Metadata, error) {
	dec, err := audio.ReadAll(path)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Analysis failed: %v", err)), nil, err
	}
	meta := dec.Metadata
	if decoded != nil {
		decoded(&meta)
	}

	result, err := Analyze(PCM{
		Samples:    dec.Samples,
		Channels:   meta.Channels,
		SampleRate: uint32(max(meta.SampleRate, 0)),
		Duration:   meta.Duration,
	}, cfg, opts...)
	if err != nil {
		return nil, &meta, err
	}
	return result, &meta, nil
}

// AnalyzeFiles analyses every path and returns one FileResult per input, in
// input order.
//
// A file that cannot be decoded produces an ERROR-kind result and does not
// stop the batch. When ctx is cancelled, files that have not started are
// skipped (nil Result, Err set to the context error) while results already
// produced are kept, and the context error is returned. An in-flight file
// always runs to completion. An invalid configuration fails the whole call
// before any file is read.
func AnalyzeFiles(ctx context.Context, paths []string, cfg *AnalysisConfig, opts BatchOptions) ([]FileResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]FileResult, len(paths))
	for i, p := range paths {
		results[i] = FileResult{Index: i, Path: p}
	}

	progress := opts.Progress
	if progress == nil {
		progress = func(FileEvent) {}
	}

	var analysisOpts []Option
	if opts.Tracer != nil {
		analysisOpts = append(analysisOpts, WithTracer(opts.Tracer))
	}
	if opts.Jobs > 1 {
		// Files already run in parallel; keep per-file extraction sequential
		// so the two pools do not multiply
		analysisOpts = append(analysisOpts, WithWorkers(1))
	}

	run := func(i int) error {
		path := paths[i]
		start := time.Now()
		progress(FileEvent{Index: i, Path: path, Stage: FileStarted})

		result, meta, err := analyzeFile(path, cfg, func(m *audio.Metadata) {
			progress(FileEvent{Index: i, Path: path, Stage: FileDecoded, Metadata: m})
		}, analysisOpts...)
		if result == nil {
			// Only an invalid config gets here, and it was validated above
			return err
		}

		results[i].Result = result
		results[i].Metadata = meta
		results[i].Err = err
		results[i].Elapsed = time.Since(start)
		progress(FileEvent{Index: i, Path: path, Stage: FileCompleted, Metadata: meta, Result: &results[i]})
		return nil
	}

	jobs := max(opts.Jobs, 1)
	eg := &errgroup.Group{}
	eg.SetLimit(jobs)

	var cancelled error
	for i := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		eg.Go(func() error {
			// Re-check: the slot may have been granted after cancellation
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			return run(i)
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}

	for i := range results {
		if results[i].Result == nil && results[i].Err == nil {
			results[i].Err = cancelled
		}
	}
	if cancelled == nil {
		if err := ctx.Err(); err != nil && anySkipped(results) {
			cancelled = err
		}
	}
	return results, cancelled
}

func anySkipped(results []FileResult) bool {
	for _, r := range results {
		if r.Skipped() {
			return true
		}
	}
	return false
}

// ErrorCount returns how many results are ERROR-kind or were skipped.
func ErrorCount(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Result == nil || r.Result.Trigger == TriggerError {
			n++
		}
	}
	return n
}
