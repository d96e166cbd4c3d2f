package processor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SpectralEstimator measures the dominant frequency and spectral purity of a
// frame within a narrow band.
//
// Only the bins inside the band are evaluated, each by direct sine/cosine
// correlation over the frame. The basis tables are computed once per
// estimator and shared by every frame, so a worker pool can call Estimate
// concurrently.
type SpectralEstimator struct {
	sampleRate  int
	frameLength int
	minBin      int
	maxBin      int
	cos         [][]float64 // cos[b][t] for bin minBin+b
	sin         [][]float64
}

// NewSpectralEstimator prepares an estimator for frames of frameLength
// samples, scanning integer bins k with k*rate/frameLength in [fMin, fMax].
// At least bin 1 and at most frameLength/2 are scanned.
func NewSpectralEstimator(sampleRate, frameLength int, fMin, fMax float64) *SpectralEstimator {
	e := &SpectralEstimator{
		sampleRate:  sampleRate,
		frameLength: frameLength,
	}
	if sampleRate <= 0 || frameLength <= 0 {
		return e
	}

	n := float64(frameLength)
	rate := float64(sampleRate)
	e.minBin = max(1, int(math.Ceil(fMin*n/rate-1e-9)))
	e.maxBin = min(int(math.Floor(fMax*n/rate+1e-9)), frameLength/2)

	for k := e.minBin; k <= e.maxBin; k++ {
		c := make([]float64, frameLength)
		s := make([]float64, frameLength)
		for t := 0; t < frameLength; t++ {
			angle := 2 * math.Pi * float64(k) * float64(t) / n
			c[t] = math.Cos(angle)
			s[t] = math.Sin(angle)
		}
		e.cos = append(e.cos, c)
		e.sin = append(e.sin, s)
	}
	return e
}

// Bins returns the number of bins scanned per frame.
func (e *SpectralEstimator) Bins() int {
	return len(e.cos)
}

// BinWidth returns the frequency resolution in Hz.
func (e *SpectralEstimator) BinWidth() float64 {
	if e.frameLength == 0 {
		return 0
	}
	return float64(e.sampleRate) / float64(e.frameLength)
}

// Estimate returns the dominant in-band frequency (Hz) and the purity of the
// frame: the dominant bin's magnitude as a fraction of the summed magnitude
// of all scanned bins. Purity is 0 when the band holds no energy.
func (e *SpectralEstimator) Estimate(frame []float32) (freq, purity float64) {
	if len(e.cos) == 0 || len(frame) != e.frameLength {
		return 0, 0
	}

	mags := make([]float64, len(e.cos))
	for b := range e.cos {
		cb, sb := e.cos[b], e.sin[b]
		var re, im float64
		for t, x := range frame {
			v := float64(x)
			re += v * cb[t]
			im -= v * sb[t]
		}
		mags[b] = math.Hypot(re, im)
	}

	total := floats.Sum(mags)
	if total <= 0 {
		return 0, 0
	}

	peak := floats.MaxIdx(mags)
	freq = float64(e.minBin+peak) * e.BinWidth()
	purity = mags[peak] / total
	return freq, purity
}
