package processor

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Frame holds the features of one analysis window.
type Frame struct {
	Start     float64 // seconds
	Energy    float64 // RMS of the normalized samples
	Frequency float64 // dominant in-band frequency (Hz), 0 if not estimated
	Purity    float64 // 0..1, 0 if not estimated
	Spectral  bool    // spectral estimate ran (energy above BeepEnergyMin)
}

// Energy returns the RMS level of samples.
func Energy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// minFramesPerWorker keeps goroutine overhead below the per-frame work for short files.
const minFramesPerWorker = 64

// extractFeatures computes energy and spectral features for every frame.
//
// Frames are split into contiguous ranges processed concurrently; each
// result is written to its own index, so the returned slice is in ascending
// time order regardless of scheduling.
func extractFeatures(framer *Framer, est *SpectralEstimator, energyMin float64, workers int) []Frame {
	count := framer.Count()
	frames := make([]Frame, count)
	if count == 0 {
		return frames
	}

	compute := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			samples, start := framer.At(i)
			f := Frame{Start: start, Energy: Energy(samples)}
			if f.Energy > energyMin {
				f.Frequency, f.Purity = est.Estimate(samples)
				f.Spectral = true
			}
			frames[i] = f
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if limit := count / minFramesPerWorker; workers > limit {
		workers = max(limit, 1)
	}
	if workers == 1 {
		compute(0, count)
		return frames
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	chunk := (count + workers - 1) / workers
	for lo := 0; lo < count; lo += chunk {
		hi := min(lo+chunk, count)
		eg.Go(func() error {
			compute(lo, hi)
			return nil
		})
	}
	// Workers never fail; Wait is only the join point
	_ = eg.Wait()

	return frames
}
