package processor

import "math"

// minNormalisePeak is the peak amplitude at or below which a signal is left unscaled.
const minNormalisePeak = 0.001

// SampleBuffer is a mono, peak-normalized signal owned by a single analysis.
type SampleBuffer struct {
	Samples    []float32
	SampleRate int
	Duration   float64 // seconds
	Peak       float64 // peak absolute amplitude before normalization
}

// Len returns the number of samples in the buffer.
func (b SampleBuffer) Len() int {
	return len(b.Samples)
}

// Normalize mixes interleaved multi-channel samples down to mono and scales
// the result to unit peak amplitude.
//
// Channels are mixed by per-sample arithmetic mean, which keeps content that
// only exists in one channel (common with call recorders that write the far
// end to the right channel). The input slice is never modified.
func Normalize(interleaved []float32, channels, sampleRate int) SampleBuffer {
	if channels < 1 {
		channels = 1
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)

	if channels == 1 {
		copy(mono, interleaved)
	} else {
		inv := 1.0 / float64(channels)
		for i := 0; i < frames; i++ {
			var sum float64
			base := i * channels
			for ch := 0; ch < channels; ch++ {
				sum += float64(interleaved[base+ch])
			}
			mono[i] = float32(sum * inv)
		}
	}

	peak := peakAmplitude(mono)
	if peak > minNormalisePeak {
		scale := 1.0 / peak
		for i, s := range mono {
			mono[i] = float32(float64(s) * scale)
		}
	}

	var duration float64
	if sampleRate > 0 {
		duration = float64(frames) / float64(sampleRate)
	}

	return SampleBuffer{
		Samples:    mono,
		SampleRate: sampleRate,
		Duration:   duration,
		Peak:       peak,
	}
}

// peakAmplitude returns the largest absolute sample value.
func peakAmplitude(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}
