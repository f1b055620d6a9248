package types

import (
	"fmt"
	"time"
)

// ModelRef names a generation model at a vendor
type ModelRef struct {
	Vendor string `json:"vendor" yaml:"vendor"`
	Model  string `json:"model" yaml:"model"`
}

// OptimizeConfig controls post-generation media optimization. These settings
// never contribute to cache keys: they change encoding, not semantic payload.
type OptimizeConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Quality int  `json:"quality" yaml:"quality"`
}

// CacheDirs holds the two independent content-addressed store roots
type CacheDirs struct {
	Images string `json:"images" yaml:"images"`
	Audio  string `json:"audio" yaml:"audio"`
}

// OutputConfig controls where artifacts and metadata land
type OutputConfig struct {
	Directory string    `json:"directory" yaml:"directory"`
	Cache     CacheDirs `json:"cache" yaml:"cache"`
}

// RetryConfig controls per-task retry behavior. Delay is a fixed pause
// between attempts.
type RetryConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	MaxAttempts  int  `json:"max_attempts" yaml:"max_attempts"`
	DelaySeconds int  `json:"delay_seconds" yaml:"delay_seconds"`
}

// Delay returns the configured inter-attempt pause
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelaySeconds) * time.Second
}

// GenerationConfig bounds the orchestrator
type GenerationConfig struct {
	MaxConcurrent  int         `json:"max_concurrent" yaml:"max_concurrent"`
	TimeoutSeconds int         `json:"timeout_seconds" yaml:"timeout_seconds"`
	Retry          RetryConfig `json:"retry" yaml:"retry"`
}

// Timeout returns the per-attempt provider timeout
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// ImageConfig holds image generation defaults
type ImageConfig struct {
	DefaultModel ModelRef       `json:"default_model" yaml:"default_model"`
	Optimize     OptimizeConfig `json:"optimize" yaml:"optimize"`
}

// TTSConfig holds speech generation defaults
type TTSConfig struct {
	DefaultModel ModelRef       `json:"default_model" yaml:"default_model"`
	Optimize     OptimizeConfig `json:"optimize" yaml:"optimize"`
}

// MovieConfig holds timeline/compositing settings
type MovieConfig struct {
	NoAudioLength float64 `json:"no_audio_length" yaml:"no_audio_length"`
	Resolution    string  `json:"resolution" yaml:"resolution"`
}

// CompositeConfig groups downstream assembly settings
type CompositeConfig struct {
	Movie MovieConfig `json:"movie" yaml:"movie"`
}

// Config is the document's config block
type Config struct {
	Output     OutputConfig     `json:"output" yaml:"output"`
	Image      ImageConfig      `json:"image" yaml:"image"`
	TTS        TTSConfig        `json:"tts" yaml:"tts"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Composite  CompositeConfig  `json:"composite" yaml:"composite"`
}

// DefaultConfig returns the configuration used when the document omits a
// config block or individual fields.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Directory: "./output",
			Cache: CacheDirs{
				Images: ".storyboard/generated/images",
				Audio:  ".storyboard/generated/audio",
			},
		},
		Image: ImageConfig{
			DefaultModel: ModelRef{Vendor: string(ImageVendorGemini), Model: "gemini-3-pro-image-preview"},
			Optimize:     OptimizeConfig{Enabled: true, Quality: 80},
		},
		TTS: TTSConfig{
			DefaultModel: ModelRef{Vendor: string(TTSVendorGemini), Model: "gemini-2.5-flash-preview-tts"},
			Optimize:     OptimizeConfig{Enabled: true, Quality: 8},
		},
		Generation: GenerationConfig{
			MaxConcurrent:  10,
			TimeoutSeconds: 120,
			Retry: RetryConfig{
				Enabled:      true,
				MaxAttempts:  3,
				DelaySeconds: 2,
			},
		},
		Composite: CompositeConfig{
			Movie: MovieConfig{NoAudioLength: 3.0, Resolution: "1920x1080"},
		},
	}
}

// Validate checks configuration bounds. Violations are fatal and fail the
// run before any task is dispatched.
func (c *Config) Validate() error {
	if c.Generation.MaxConcurrent < 1 {
		return fmt.Errorf("generation.max_concurrent must be at least 1, got %d", c.Generation.MaxConcurrent)
	}
	if c.Generation.TimeoutSeconds < 1 {
		return fmt.Errorf("generation.timeout_seconds must be at least 1, got %d", c.Generation.TimeoutSeconds)
	}
	if c.Generation.Retry.MaxAttempts < 1 {
		return fmt.Errorf("generation.retry.max_attempts must be at least 1, got %d", c.Generation.Retry.MaxAttempts)
	}
	if c.Generation.Retry.DelaySeconds < 0 {
		return fmt.Errorf("generation.retry.delay_seconds cannot be negative, got %d", c.Generation.Retry.DelaySeconds)
	}
	if q := c.Image.Optimize.Quality; q < 1 || q > 100 {
		return fmt.Errorf("image.optimize.quality must be between 1 and 100, got %d", q)
	}
	if q := c.TTS.Optimize.Quality; q < 1 {
		return fmt.Errorf("tts.optimize.quality must be at least 1, got %d", q)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory cannot be empty")
	}
	if c.Output.Cache.Images == "" || c.Output.Cache.Audio == "" {
		return fmt.Errorf("output.cache directories cannot be empty")
	}
	if c.Composite.Movie.NoAudioLength <= 0 {
		return fmt.Errorf("composite.movie.no_audio_length must be positive, got %g", c.Composite.Movie.NoAudioLength)
	}
	return nil
}
