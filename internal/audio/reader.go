// Package audio decodes WAV and FLAC recordings into float32 PCM.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for files that are neither WAV nor FLAC.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// wavFormatPCM and wavFormatExtensible are the integer PCM WAVE format tags.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// wavBlockFrames is how many sample frames a WAV reader hands out per ReadFrame.
const wavBlockFrames = 4096

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	Format     string // "wav" or "flac"
	BitDepth   int
	Title      string // from FLAC tags; empty when absent
}

// Reader yields blocks of interleaved float32 samples scaled to [-1, 1).
type Reader struct {
	meta Metadata

	// WAV: the whole PCM payload is decoded up front and handed out in blocks
	wavData []int
	wavPos  int

	// FLAC: frames are decoded on demand
	stream *flac.Stream
	file   *os.File

	scale float64
	block []float32
}

// OpenAudioFile opens an audio file for reading. The container is detected
// from its magic bytes, not the file extension.
func OpenAudioFile(filename string) (*Reader, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	magic := make([]byte, 12)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}
	magic = magic[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to rewind %s: %w", filename, err)
	}

	switch {
	case len(magic) >= 12 && bytes.Equal(magic[0:4], []byte("RIFF")) && bytes.Equal(magic[8:12], []byte("WAVE")):
		defer f.Close()
		return openWAV(f, filename)
	case len(magic) >= 4 && bytes.Equal(magic[0:4], []byte("fLaC")):
		return openFLAC(f, filename)
	default:
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func openWAV(f *os.File, filename string) (*Reader, *Metadata, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, nil, fmt.Errorf("invalid WAV file %s: %w", filename, err)
		}
		return nil, nil, fmt.Errorf("invalid WAV file: %s", filename)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, nil, fmt.Errorf("%w: WAV format tag %d in %s (integer PCM only)", ErrUnsupportedFormat, dec.WavAudioFormat, filename)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("could not read PCM data from %s: %w", filename, err)
	}

	channels := int(dec.NumChans)
	rate := int(dec.SampleRate)
	frames := len(buf.Data) / channels

	meta := Metadata{
		SampleRate: rate,
		Channels:   channels,
		Format:     "wav",
		BitDepth:   int(dec.BitDepth),
	}
	if rate > 0 {
		meta.Duration = float64(frames) / float64(rate)
	}

	r := &Reader{
		meta:    meta,
		wavData: buf.Data[:frames*channels],
		scale:   fullScale(meta.BitDepth),
	}
	return r, &meta, nil
}

func openFLAC(f *os.File, filename string) (*Reader, *Metadata, error) {
	title := readTitle(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to rewind %s: %w", filename, err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("invalid FLAC file %s: %w", filename, err)
	}

	info := stream.Info
	meta := Metadata{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		Format:     "flac",
		BitDepth:   int(info.BitsPerSample),
		Title:      title,
	}
	if info.SampleRate > 0 {
		meta.Duration = float64(info.NSamples) / float64(info.SampleRate)
	}

	r := &Reader{
		meta:   meta,
		stream: stream,
		file:   f,
		scale:  fullScale(meta.BitDepth),
	}
	return r, &meta, nil
}

// readTitle returns the recording's title tag, or "" when it has none.
func readTitle(r io.ReadSeeker) string {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(m.Title())
}

// fullScale is the magnitude of the most negative sample at the given bit depth.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}

// ReadFrame returns the next block of interleaved samples.
// It returns nil, nil when the end of the file is reached. The returned
// slice is reused by the next call.
func (r *Reader) ReadFrame() ([]float32, error) {
	if r.stream != nil {
		return r.readFLAC()
	}
	return r.readWAV(), nil
}

func (r *Reader) readWAV() []float32 {
	if r.wavPos >= len(r.wavData) {
		return nil
	}
	end := min(r.wavPos+wavBlockFrames*r.meta.Channels, len(r.wavData))
	r.block = r.block[:0]
	for _, v := range r.wavData[r.wavPos:end] {
		if r.meta.BitDepth == 8 {
			// 8-bit WAV is unsigned with a 128 midpoint
			v -= 128
		}
		r.block = append(r.block, float32(float64(v)/r.scale))
	}
	r.wavPos = end
	return r.block
}

func (r *Reader) readFLAC() ([]float32, error) {
	frame, err := r.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode FLAC frame: %w", err)
	}

	channels := len(frame.Subframes)
	if channels == 0 {
		return r.block[:0], nil
	}
	samples := frame.Subframes[0].NSamples
	r.block = r.block[:0]
	for i := 0; i < samples; i++ {
		for ch := 0; ch < channels; ch++ {
			r.block = append(r.block, float32(float64(frame.Subframes[ch].Samples[i])/r.scale))
		}
	}
	return r.block, nil
}

// Metadata returns the metadata read when the file was opened.
func (r *Reader) Metadata() Metadata {
	return r.meta
}

// Close releases all resources
func (r *Reader) Close() {
	if r.stream != nil {
		r.stream.Close()
		r.stream = nil
	}
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	r.wavData = nil
}

// Decoded is a fully decoded recording.
type Decoded struct {
	Samples  []float32 // interleaved
	Metadata Metadata
}

// ReadAll decodes an entire file into memory.
func ReadAll(filename string) (*Decoded, error) {
	reader, meta, err := OpenAudioFile(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	samples := make([]float32, 0, int(meta.Duration*float64(meta.SampleRate))*max(meta.Channels, 1))
	for {
		block, err := reader.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		if block == nil {
			break
		}
		samples = append(samples, block...)
	}

	// Trust the decoded length over container headers
	if meta.SampleRate > 0 && meta.Channels > 0 {
		meta.Duration = float64(len(samples)/meta.Channels) / float64(meta.SampleRate)
	}
	return &Decoded{Samples: samples, Metadata: *meta}, nil
}
