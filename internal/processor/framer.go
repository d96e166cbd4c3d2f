package processor

import "math"

// Framer slices a SampleBuffer into overlapping fixed-length analysis frames.
// It is a finite, restartable iterator; frames are views into the buffer and
// must not be modified.
type Framer struct {
	buf         SampleBuffer
	frameLength int
	hop         int
	offset      int
}

// NewFramer creates a framer producing frames of frameMs milliseconds that
// advance by hopRatio of the frame length.
func NewFramer(buf SampleBuffer, frameMs, hopRatio float64) *Framer {
	frameLength := int(float64(buf.SampleRate) * frameMs / 1000.0)
	if frameLength < 0 {
		frameLength = 0
	}
	hop := int(math.Floor(float64(frameLength) * hopRatio))
	if hop < 1 {
		hop = 1
	}
	return &Framer{
		buf:         buf,
		frameLength: frameLength,
		hop:         hop,
	}
}

// FrameLength returns the number of samples per frame.
func (f *Framer) FrameLength() int { return f.frameLength }

// Hop returns the number of samples between consecutive frame starts.
func (f *Framer) Hop() int { return f.hop }

// HopSeconds returns the hop expressed in seconds.
func (f *Framer) HopSeconds() float64 {
	if f.buf.SampleRate <= 0 {
		return 0
	}
	return float64(f.hop) / float64(f.buf.SampleRate)
}

// Count returns the total number of frames the framer yields.
func (f *Framer) Count() int {
	if f.frameLength == 0 || f.buf.Len() < f.frameLength {
		return 0
	}
	return (f.buf.Len()-f.frameLength)/f.hop + 1
}

// Next returns the samples and start time of the next frame.
// ok is false once no complete frame remains.
func (f *Framer) Next() (samples []float32, start float64, ok bool) {
	if f.frameLength == 0 || f.offset+f.frameLength > f.buf.Len() {
		return nil, 0, false
	}
	samples, start = f.At(f.offset / f.hop)
	f.offset += f.hop
	return samples, start, true
}

// At returns frame i directly, which lets workers process disjoint frame
// ranges without sharing iterator state. i must be in [0, Count()).
func (f *Framer) At(i int) (samples []float32, start float64) {
	offset := i * f.hop
	return f.buf.Samples[offset : offset+f.frameLength], float64(offset) / float64(f.buf.SampleRate)
}

// Reset rewinds the framer to the first frame.
func (f *Framer) Reset() {
	f.offset = 0
}
