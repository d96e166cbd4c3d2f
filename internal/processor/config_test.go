package processor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultAnalysisConfigIsValid(t *testing.T) {
	if err := DefaultAnalysisConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AnalysisConfig)
		wantErr string
	}{
		{"inverted analysis band", func(c *AnalysisConfig) { c.AnalysisBandMinHz = 2000 }, "analysis band"},
		{"inverted beep band", func(c *AnalysisConfig) { c.BeepFreqMaxHz = 500 }, "beep band"},
		{"zero frame duration", func(c *AnalysisConfig) { c.FrameDurationMs = 0 }, "frame_duration_ms"},
		{"hop ratio above one", func(c *AnalysisConfig) { c.HopRatio = 1.5 }, "hop_ratio"},
		{"negative guard", func(c *AnalysisConfig) { c.GuardWindowSeconds = -1 }, "guard_window_seconds"},
		{"purity above one", func(c *AnalysisConfig) { c.ExcellentPurityMin = 1.2 }, "excellent_purity_min"},
		{"chunk tiers inverted", func(c *AnalysisConfig) { c.MinChunksShort = 9 }, "min_chunks_short (9)"},
		{"zero chunks", func(c *AnalysisConfig) { c.MinChunksShort = 0 }, "at least 1"},
		{"negative workers", func(c *AnalysisConfig) { c.Workers = -2 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAnalysisConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.HopRatio = 0
	cfg.EndOffset = -1
	cfg.BeepPurityMin = 2

	err := cfg.Validate()
	for _, want := range []string{"hop_ratio", "end_offset", "beep_purity_min"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %v missing %q", err, want)
		}
	}

	var nilCfg *AnalysisConfig
	if err := nilCfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil config: got %v", err)
	}
}

func TestLoadConfigFromReader(t *testing.T) {
	const doc = `
[analysis]
guard_window_seconds = 2.5
min_drop_silence = 1.0
min_chunks_long = 10
workers = 2
`
	cfg, err := LoadConfigFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfigFromReader() error: %v", err)
	}

	if cfg.GuardWindowSeconds != 2.5 || cfg.MinDropSilence != 1.0 || cfg.MinChunksLong != 10 || cfg.Workers != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	def := DefaultAnalysisConfig()
	if cfg.BeepFreqMinHz != def.BeepFreqMinHz || cfg.PostSpeechOffset != def.PostSpeechOffset {
		t.Errorf("absent keys lost their defaults: %+v", cfg)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown key", "[analysis]\nguard_window = 2.0\n", "unknown keys: analysis.guard_window"},
		{"unknown table", "[output]\nformat = \"json\"\n", "unknown keys"},
		{"invalid value", "[analysis]\nhop_ratio = 0.0\n", "hop_ratio"},
		{"malformed toml", "[analysis\n", "decode toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropcue.toml")
	if err := os.WriteFile(path, []byte("[analysis]\nend_offset = 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.EndOffset != 1.0 {
		t.Errorf("EndOffset = %g, want 1.0", cfg.EndOffset)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}
}

func TestLoadYAMLConfigFromReader(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		check   func(*AnalysisConfig) bool
		wantErr string
	}{
		{
			name:  "overrides",
			doc:   "analysis:\n  guard_window_seconds: 2.5\n  min_chunks_short: 3\n",
			check: func(c *AnalysisConfig) bool { return c.GuardWindowSeconds == 2.5 && c.MinChunksShort == 3 && c.EndOffset == 0.5 },
		},
		{
			name:  "empty document",
			doc:   "",
			check: func(c *AnalysisConfig) bool { return *c == *DefaultAnalysisConfig() },
		},
		{name: "unknown key", doc: "analysis:\n  guard_window: 2.0\n", wantErr: "guard_window"},
		{name: "invalid value", doc: "analysis:\n  hop_ratio: 1.5\n", wantErr: "hop_ratio"},
		{name: "malformed yaml", doc: "analysis: [\n", wantErr: "decode yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadYAMLConfigFromReader(strings.NewReader(tt.doc))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %v does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadYAMLConfigFromReader() error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config: %+v", cfg)
			}
		})
	}
}

func TestLoadConfigPicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"dropcue.yaml": "analysis:\n  end_offset: 1.5\n",
		"dropcue.YML":  "analysis:\n  end_offset: 1.5\n",
		"dropcue.toml": "[analysis]\nend_offset = 1.5\n",
		"dropcue.conf": "[analysis]\nend_offset = 1.5\n",
	}
	for name, doc := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error: %v", err)
			}
			if cfg.EndOffset != 1.5 {
				t.Errorf("EndOffset = %g, want 1.5", cfg.EndOffset)
			}
		})
	}
}
