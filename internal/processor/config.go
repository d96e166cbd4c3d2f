package processor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid analysis config")

// AnalysisConfig holds every tunable used by the drop analysis.
// All thresholds are empirically fitted against real voicemail greetings
// and apply to the normalized (unit peak) signal.
type AnalysisConfig struct {
	// Spectral scan band (Hz). Purity is measured against the energy in this band.
	AnalysisBandMinHz float64 `toml:"analysis_band_min_hz" yaml:"analysis_band_min_hz"`
	AnalysisBandMaxHz float64 `toml:"analysis_band_max_hz" yaml:"analysis_band_max_hz"`

	// Tonal candidate selection
	BeepFreqMinHz float64 `toml:"beep_freq_min_hz" yaml:"beep_freq_min_hz"` // Lowest dominant frequency accepted as beep content
	BeepFreqMaxHz float64 `toml:"beep_freq_max_hz" yaml:"beep_freq_max_hz"` // Highest dominant frequency accepted as beep content
	BeepPurityMin float64 `toml:"beep_purity_min" yaml:"beep_purity_min"`   // Minimum purity for a tonal candidate
	BeepEnergyMin float64 `toml:"beep_energy_min" yaml:"beep_energy_min"`   // Frames below this RMS skip spectral estimation

	// Silence and speech tracking
	SilenceEnergyThreshold float64 `toml:"silence_energy_threshold" yaml:"silence_energy_threshold"` // RMS below this is silent
	MinSilenceDuration     float64 `toml:"min_silence_duration" yaml:"min_silence_duration"`         // Seconds before a quiet run is reported
	SpeechEnergyThreshold  float64 `toml:"speech_energy_threshold" yaml:"speech_energy_threshold"`   // RMS above this updates speech end

	// Framing
	FrameDurationMs float64 `toml:"frame_duration_ms" yaml:"frame_duration_ms"`
	HopRatio        float64 `toml:"hop_ratio" yaml:"hop_ratio"` // Hop as a fraction of frame length (0.5 = 50% overlap)

	// Grouping continuity
	MaxGroupGapSeconds float64 `toml:"max_group_gap_seconds" yaml:"max_group_gap_seconds"`
	MaxFreqDeltaHz     float64 `toml:"max_freq_delta_hz" yaml:"max_freq_delta_hz"`
	MinGroupDuration   float64 `toml:"min_group_duration" yaml:"min_group_duration"`

	// Beep classification tiers
	StableStdDevHz     float64 `toml:"stable_std_dev_hz" yaml:"stable_std_dev_hz"`
	GoodPurityMin      float64 `toml:"good_purity_min" yaml:"good_purity_min"`
	AltPurityMin       float64 `toml:"alt_purity_min" yaml:"alt_purity_min"`
	HighPurityMin      float64 `toml:"high_purity_min" yaml:"high_purity_min"`
	ExcellentPurityMin float64 `toml:"excellent_purity_min" yaml:"excellent_purity_min"`
	MinChunksLong      int     `toml:"min_chunks_long" yaml:"min_chunks_long"`
	MinChunksShort     int     `toml:"min_chunks_short" yaml:"min_chunks_short"`

	// Decision
	GuardWindowSeconds float64 `toml:"guard_window_seconds" yaml:"guard_window_seconds"` // Early-call cues are ignored
	MinDropSilence     float64 `toml:"min_drop_silence" yaml:"min_drop_silence"`         // Shortest silence that triggers a drop
	PostSilenceOffset  float64 `toml:"post_silence_offset" yaml:"post_silence_offset"`
	PostSpeechOffset   float64 `toml:"post_speech_offset" yaml:"post_speech_offset"`
	EndOffset          float64 `toml:"end_offset" yaml:"end_offset"`

	// Feature extraction goroutines (0 = GOMAXPROCS, 1 = sequential)
	Workers int `toml:"workers" yaml:"workers"`
}

// DefaultAnalysisConfig returns the tuning used for phone-quality voicemail greetings.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		AnalysisBandMinHz: 400.0,
		AnalysisBandMaxHz: 1500.0,

		BeepFreqMinHz: 600.0,
		BeepFreqMaxHz: 1100.0,
		// Browser and telephony resampling smears tones across bins, so
		// candidate purity is deliberately permissive; the group tiers do the real work
		BeepPurityMin: 0.04,
		BeepEnergyMin: 0.01,

		SilenceEnergyThreshold: 0.01,
		MinSilenceDuration:     0.5,
		SpeechEnergyThreshold:  0.015,

		FrameDurationMs: 50.0,
		HopRatio:        0.5,

		MaxGroupGapSeconds: 0.25,
		MaxFreqDeltaHz:     100.0,
		MinGroupDuration:   0.10,

		StableStdDevHz:     15.0,
		GoodPurityMin:      0.20,
		AltPurityMin:       0.30,
		HighPurityMin:      0.40,
		ExcellentPurityMin: 0.50,
		MinChunksLong:      8,
		MinChunksShort:     4,

		GuardWindowSeconds: 3.0,
		MinDropSilence:     0.8,
		PostSilenceOffset:  0.2,
		PostSpeechOffset:   0.4,
		EndOffset:          0.5,

		Workers: 0,
	}
}

// Validate checks that cfg is coherent. It returns a joined error listing
// every problem found; each one wraps ErrInvalidConfig.
func (cfg *AnalysisConfig) Validate() error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if cfg.AnalysisBandMinHz < 0 || cfg.AnalysisBandMinHz >= cfg.AnalysisBandMaxHz {
		fail("analysis band [%.1f, %.1f] Hz is empty or negative", cfg.AnalysisBandMinHz, cfg.AnalysisBandMaxHz)
	}
	if cfg.BeepFreqMinHz < 0 || cfg.BeepFreqMinHz > cfg.BeepFreqMaxHz {
		fail("beep band [%.1f, %.1f] Hz is inverted or negative", cfg.BeepFreqMinHz, cfg.BeepFreqMaxHz)
	}
	if cfg.FrameDurationMs <= 0 {
		fail("frame_duration_ms must be positive, got %.2f", cfg.FrameDurationMs)
	}
	if cfg.HopRatio <= 0 || cfg.HopRatio > 1 {
		fail("hop_ratio must be in (0, 1], got %.2f", cfg.HopRatio)
	}

	nonNegative := map[string]float64{
		"beep_energy_min":          cfg.BeepEnergyMin,
		"silence_energy_threshold": cfg.SilenceEnergyThreshold,
		"speech_energy_threshold":  cfg.SpeechEnergyThreshold,
		"min_silence_duration":     cfg.MinSilenceDuration,
		"max_group_gap_seconds":    cfg.MaxGroupGapSeconds,
		"max_freq_delta_hz":        cfg.MaxFreqDeltaHz,
		"min_group_duration":       cfg.MinGroupDuration,
		"stable_std_dev_hz":        cfg.StableStdDevHz,
		"guard_window_seconds":     cfg.GuardWindowSeconds,
		"min_drop_silence":         cfg.MinDropSilence,
		"post_silence_offset":      cfg.PostSilenceOffset,
		"post_speech_offset":       cfg.PostSpeechOffset,
		"end_offset":               cfg.EndOffset,
	}
	for _, name := range sortedKeys(nonNegative) {
		if v := nonNegative[name]; v < 0 {
			fail("%s must not be negative, got %g", name, v)
		}
	}

	purities := map[string]float64{
		"beep_purity_min":      cfg.BeepPurityMin,
		"good_purity_min":      cfg.GoodPurityMin,
		"alt_purity_min":       cfg.AltPurityMin,
		"high_purity_min":      cfg.HighPurityMin,
		"excellent_purity_min": cfg.ExcellentPurityMin,
	}
	for _, name := range sortedKeys(purities) {
		if v := purities[name]; v < 0 || v > 1 {
			fail("%s must be within [0, 1], got %g", name, v)
		}
	}

	if cfg.MinChunksShort < 1 || cfg.MinChunksLong < 1 {
		fail("min_chunks_short and min_chunks_long must be at least 1")
	} else if cfg.MinChunksShort > cfg.MinChunksLong {
		fail("min_chunks_short (%d) exceeds min_chunks_long (%d)", cfg.MinChunksShort, cfg.MinChunksLong)
	}
	if cfg.Workers < 0 {
		fail("workers must not be negative, got %d", cfg.Workers)
	}

	return errors.Join(errs...)
}

// configFile is the on-disk layout: tunables live under [analysis] (TOML)
// or an analysis: mapping (YAML).
type configFile struct {
	Analysis AnalysisConfig `toml:"analysis" yaml:"analysis"`
}

// LoadConfig reads a TOML or YAML config file and returns a validated
// AnalysisConfig. Files ending in .yaml or .yml are read as YAML; anything
// else is TOML. Keys that are absent keep their default values.
func LoadConfig(path string) (*AnalysisConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	load := LoadConfigFromReader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		load = LoadYAMLConfigFromReader
	}

	cfg, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromReader decodes TOML from r on top of the defaults and validates the result.
func LoadConfigFromReader(r io.Reader) (*AnalysisConfig, error) {
	file := configFile{Analysis: *DefaultAnalysisConfig()}
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("config: decode toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := file.Analysis.Validate(); err != nil {
		return nil, err
	}
	return &file.Analysis, nil
}

// LoadYAMLConfigFromReader is LoadConfigFromReader for YAML documents.
// Unknown keys are rejected. An empty document yields the defaults.
func LoadYAMLConfigFromReader(r io.Reader) (*AnalysisConfig, error) {
	file := configFile{Analysis: *DefaultAnalysisConfig()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := file.Analysis.Validate(); err != nil {
		return nil, err
	}
	return &file.Analysis, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
