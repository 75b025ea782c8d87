package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/slidefuse/merge"
	"github.com/maastricht-university/slidefuse/ocr"
	"github.com/maastricht-university/slidefuse/textnorm"
)

// EnvPrefix namespaces environment overrides, e.g. SLIDEFUSE_FUSION_SLIDE_CHAR_LIMIT.
const EnvPrefix = "SLIDEFUSE"

var ErrInvalid = errors.New("invalid config")

type Service struct {
	URL string `yaml:"url"`
}
type Services struct {
	OCR     Service `yaml:"ocr"`
	ASR     Service `yaml:"asr"`
	Refine  Service `yaml:"refine"`
	Publish Service `yaml:"publish"`
}
type Fusion struct {
	SimilarityThreshold    float64 `yaml:"similarity_threshold"`
	MinAppearanceRatio     float64 `yaml:"min_appearance_ratio"`
	SingletonClusterFrames int     `yaml:"singleton_cluster_frames"`
	SentenceGapSeconds     float64 `yaml:"sentence_gap_seconds"`
	SlideCharLimit         int     `yaml:"slide_char_limit"`
	MinLineRunes           int     `yaml:"min_line_runes"`
	MinAlnumRatio          float64 `yaml:"min_alnum_ratio"`
}
type Sampling struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
}
type Export struct {
	Formats []string `yaml:"formats"`
}
type Root struct {
	Pipeline struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		LogLvl  string `yaml:"log_level"`
	} `yaml:"pipeline"`
	Fusion   Fusion   `yaml:"fusion"`
	Sampling Sampling `yaml:"sampling"`
	Services Services `yaml:"services"`
	Export   Export   `yaml:"export"`
	Paths    struct {
		Outputs string `yaml:"outputs"`
		Inbox   string `yaml:"inbox"`
	} `yaml:"paths"`
	Timeouts struct {
		CollectSeconds int `yaml:"collect_seconds"`
	} `yaml:"timeouts"`
}

// Default returns the configuration used when no file is found.
func Default() *Root {
	var c Root
	c.Pipeline.Name = "slidefuse"
	c.Pipeline.Version = "0.1.0"
	c.Pipeline.LogLvl = "info"
	c.Fusion = Fusion{
		SimilarityThreshold:    0.62,
		MinAppearanceRatio:     0.30,
		SingletonClusterFrames: 2,
		SentenceGapSeconds:     1.5,
		SlideCharLimit:         1000,
		MinLineRunes:           3,
		MinAlnumRatio:          0.45,
	}
	c.Sampling.IntervalSeconds = 0.5
	c.Export.Formats = []string{"json"}
	c.Paths.Outputs = "outputs"
	c.Paths.Inbox = "inbox"
	c.Timeouts.CollectSeconds = 600
	return &c
}

// Load reads the YAML config at path, or the first of the CONFIG_ENV guess
// paths when path is empty, over Default. A missing file is not an error.
// Environment variables (after an optional .env) and any keys set on v win
// over the file.
func Load(path string, v *viper.Viper) (*Root, error) {
	_ = godotenv.Load()

	cfg := Default()
	guess := []string{path}
	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		guess = []string{
			filepath.Join("config", env, "config.yaml"),
			filepath.Join("src", "shared", "config.yaml"),
		}
	}
	for _, p := range guess {
		f, err := os.Open(p)
		if err != nil {
			if path != "" {
				return nil, fmt.Errorf("open config: %w", err)
			}
			continue
		}
		err = yaml.NewDecoder(f).Decode(cfg)
		f.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		break
	}

	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg.override(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Root) override(v *viper.Viper) {
	str := func(key string, dst *string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	num := func(key string, dst *float64) {
		if v.IsSet(key) || v.GetString(key) != "" {
			*dst = v.GetFloat64(key)
		}
	}
	integer := func(key string, dst *int) {
		if v.IsSet(key) || v.GetString(key) != "" {
			*dst = v.GetInt(key)
		}
	}

	str("pipeline.log_level", &c.Pipeline.LogLvl)
	num("fusion.similarity_threshold", &c.Fusion.SimilarityThreshold)
	num("fusion.min_appearance_ratio", &c.Fusion.MinAppearanceRatio)
	integer("fusion.singleton_cluster_frames", &c.Fusion.SingletonClusterFrames)
	num("fusion.sentence_gap_seconds", &c.Fusion.SentenceGapSeconds)
	integer("fusion.slide_char_limit", &c.Fusion.SlideCharLimit)
	integer("fusion.min_line_runes", &c.Fusion.MinLineRunes)
	num("fusion.min_alnum_ratio", &c.Fusion.MinAlnumRatio)
	num("sampling.interval_seconds", &c.Sampling.IntervalSeconds)
	str("services.ocr.url", &c.Services.OCR.URL)
	str("services.asr.url", &c.Services.ASR.URL)
	str("services.refine.url", &c.Services.Refine.URL)
	str("services.publish.url", &c.Services.Publish.URL)
	str("paths.outputs", &c.Paths.Outputs)
	str("paths.inbox", &c.Paths.Inbox)
	integer("timeouts.collect_seconds", &c.Timeouts.CollectSeconds)
	if f := splitList(v.GetStringSlice("export.formats")); len(f) > 0 {
		c.Export.Formats = f
	}
}

// splitList also accepts the comma-separated form env vars arrive in.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks ranges of the fusion tunables.
func (c *Root) Validate() error {
	f := c.Fusion
	switch {
	case f.SimilarityThreshold <= 0 || f.SimilarityThreshold > 1:
		return fmt.Errorf("%w: fusion.similarity_threshold must be in (0,1], got %v", ErrInvalid, f.SimilarityThreshold)
	case f.MinAppearanceRatio <= 0 || f.MinAppearanceRatio > 1:
		return fmt.Errorf("%w: fusion.min_appearance_ratio must be in (0,1], got %v", ErrInvalid, f.MinAppearanceRatio)
	case f.SingletonClusterFrames < 0:
		return fmt.Errorf("%w: fusion.singleton_cluster_frames must be >= 0, got %d", ErrInvalid, f.SingletonClusterFrames)
	case f.SentenceGapSeconds <= 0:
		return fmt.Errorf("%w: fusion.sentence_gap_seconds must be > 0, got %v", ErrInvalid, f.SentenceGapSeconds)
	case f.SlideCharLimit <= 0:
		return fmt.Errorf("%w: fusion.slide_char_limit must be > 0, got %d", ErrInvalid, f.SlideCharLimit)
	case f.MinLineRunes < 1:
		return fmt.Errorf("%w: fusion.min_line_runes must be >= 1, got %d", ErrInvalid, f.MinLineRunes)
	case f.MinAlnumRatio < 0 || f.MinAlnumRatio > 1:
		return fmt.Errorf("%w: fusion.min_alnum_ratio must be in [0,1], got %v", ErrInvalid, f.MinAlnumRatio)
	case c.Sampling.IntervalSeconds <= 0:
		return fmt.Errorf("%w: sampling.interval_seconds must be > 0, got %v", ErrInvalid, c.Sampling.IntervalSeconds)
	}
	return nil
}

// MergeConfig maps the fusion section onto the merger's tunables.
func (c *Root) MergeConfig() merge.Config {
	return merge.Config{
		OCR: ocr.Config{
			SimilarityThreshold: c.Fusion.SimilarityThreshold,
			MinAppearanceRatio:  c.Fusion.MinAppearanceRatio,
			SingletonFrames:     c.Fusion.SingletonClusterFrames,
			CharLimit:           c.Fusion.SlideCharLimit,
			Rules: textnorm.Rules{
				MinRunes:      c.Fusion.MinLineRunes,
				MinAlnumRatio: c.Fusion.MinAlnumRatio,
			},
		},
		GapSeconds: c.Fusion.SentenceGapSeconds,
	}
}

// YAML renders the effective configuration.
func (c *Root) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
