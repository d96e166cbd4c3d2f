package processor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// testRate is the sample rate used by synthetic fixtures. At 16 kHz a 50 ms
// frame is 800 samples, so bins are 20 Hz wide and 1000 Hz sits on bin 50.
const testRate = 16000

// testSignal builds a synthetic mono recording segment by segment.
// Times are in seconds; later segments overwrite earlier ones.
type testSignal struct {
	rate    int
	samples []float64
	rng     uint32
}

func newTestSignal(rate int, durationSecs float64) *testSignal {
	return &testSignal{
		rate:    rate,
		samples: make([]float64, int(math.Round(durationSecs*float64(rate)))),
		rng:     12345,
	}
}

// span converts a time range to clamped sample indices.
func (s *testSignal) span(from, to float64) (int, int) {
	lo := max(0, int(math.Round(from*float64(s.rate))))
	hi := min(len(s.samples), int(math.Round(to*float64(s.rate))))
	return lo, max(lo, hi)
}

// noise fills [from, to) with deterministic uniform noise in [-amp, amp].
func (s *testSignal) noise(from, to, amp float64) *testSignal {
	lo, hi := s.span(from, to)
	for i := lo; i < hi; i++ {
		// LCG parameters from Numerical Recipes
		s.rng = s.rng*1664525 + 1013904223
		s.samples[i] = amp * ((float64(s.rng)/float64(0xFFFFFFFF))*2.0 - 1.0)
	}
	return s
}

// tone fills [from, to) with a sine wave. Phase is referenced to sample 0.
func (s *testSignal) tone(from, to, freq, amp float64) *testSignal {
	lo, hi := s.span(from, to)
	for i := lo; i < hi; i++ {
		s.samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(s.rate))
	}
	return s
}

// silence zeroes [from, to).
func (s *testSignal) silence(from, to float64) *testSignal {
	lo, hi := s.span(from, to)
	clear(s.samples[lo:hi])
	return s
}

func (s *testSignal) float32s() []float32 {
	out := make([]float32, len(s.samples))
	for i, v := range s.samples {
		out[i] = float32(v)
	}
	return out
}

func (s *testSignal) pcm() PCM {
	return PCM{Samples: s.float32s(), Channels: 1, SampleRate: uint32(s.rate)}
}

// beepGreeting is a quiet line with a 1000 Hz beep from 3.5 s to 3.8 s.
func beepGreeting() *testSignal {
	return newTestSignal(testRate, 6).
		noise(0, 6, 0.0025).
		tone(3.5, 3.8, 1000, 0.5)
}

// pausedGreeting is loud noise with a hard one-second gap at 3.2 s.
func pausedGreeting() *testSignal {
	return newTestSignal(testRate, 6).
		noise(0, 6, 0.5).
		silence(3.2, 4.2)
}

// writeTestWAV writes s as a 16-bit mono WAV in a per-test temp dir.
func writeTestWAV(t *testing.T, s *testSignal, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, len(s.samples))
	for i, v := range s.samples {
		v = math.Max(-1, math.Min(1, v))
		data[i] = int(math.Round(v * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, s.rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: s.rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write WAV data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalise WAV: %v", err)
	}
	return path
}

// writeGarbage writes a file that is not audio.
func writeGarbage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("this is not a recording"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
