// Package config provides configuration loading and defaults for lessondeck.
//
// Configuration is loaded from a TOML file next to the output directory.
// The package covers output locations, the content override, procedural
// image and photo download settings, the badge font, slide previews and
// logging, all with defaults that reproduce the stock deck.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/lessondeck/internal/atomicfile"
	"tools.zach/dev/lessondeck/internal/migrate"
	"tools.zach/dev/lessondeck/internal/paths"
)

// DefaultUserAgent is sent with photo and font downloads. Some image hosts
// reject requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Image sources accepted by images.source.
const (
	SourceGenerate = "generate"
	SourceDownload = "download"
	SourceAuto     = "auto"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Output holds output file locations.
	Output OutputConfig `toml:"output"`
	// Content holds the deck content override.
	Content ContentConfig `toml:"content"`
	// Images holds slide image generation settings.
	Images ImagesConfig `toml:"images"`
	// Download holds photo download settings.
	Download DownloadConfig `toml:"download"`
	// Fonts holds the badge font settings.
	Fonts FontsConfig `toml:"fonts"`
	// Preview holds slide thumbnail settings.
	Preview PreviewConfig `toml:"preview"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// OutputConfig holds output locations. Relative paths resolve against Dir.
type OutputConfig struct {
	// Dir is the root output directory.
	Dir string `toml:"dir"`
	// Deck is the presentation file name.
	Deck string `toml:"deck"`
	// Images is the slide image directory.
	Images string `toml:"images"`
	// Previews is the slide thumbnail directory.
	Previews string `toml:"previews"`
}

// ContentConfig holds the deck content override.
type ContentConfig struct {
	// File replaces the built-in deck content when set.
	File string `toml:"file,omitempty"`
}

// ImagesConfig holds slide image generation settings.
type ImagesConfig struct {
	// Source selects where slide images come from: "generate", "download", or "auto".
	Source string `toml:"source"`
	// Width is the generated image width in pixels.
	Width int `toml:"width"`
	// Height is the generated image height in pixels.
	Height int `toml:"height"`
	// Quality is the JPEG quality (1-100).
	Quality int `toml:"quality"`
	// Seed offsets the per-scene particle seeds.
	Seed int64 `toml:"seed"`
	// Only restricts generation to image names matching these globs.
	Only []string `toml:"only"`
	// Overwrite regenerates images that already exist.
	Overwrite bool `toml:"overwrite"`
}

// DownloadConfig holds photo download settings.
type DownloadConfig struct {
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RetryMax is the number of transport-level retries per URL.
	RetryMax int `toml:"retry_max"`
	// MinBytes is the smallest body accepted as a real image.
	MinBytes int64 `toml:"min_bytes"`
	// SkipExistingBytes skips names whose file already exceeds this size.
	SkipExistingBytes int64 `toml:"skip_existing_bytes"`
	// RetryDelayMillis is the pause after a URL fails, before the next one.
	RetryDelayMillis int `toml:"retry_delay_millis"`
	// ImageDelayMillis is the pause between one image and the next.
	ImageDelayMillis int `toml:"image_delay_millis"`
	// UserAgent is the User-Agent header value.
	UserAgent string `toml:"user_agent"`
}

// FontsConfig holds the badge font settings.
type FontsConfig struct {
	// Badge is a local TTF/OTF used for the numbered badges.
	Badge string `toml:"badge,omitempty"`
	// BadgeFallback is a "google:Family:weight" spec tried when Badge is unset.
	BadgeFallback string `toml:"badge_fallback"`
	// Offline skips the Google Fonts fallback.
	Offline bool `toml:"offline"`
}

// PreviewConfig holds slide thumbnail settings.
type PreviewConfig struct {
	// Enabled renders thumbnails after every build.
	Enabled bool `toml:"enabled"`
	// Width is the thumbnail width in pixels.
	Width int `toml:"width"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// File is the rotating log file path. Empty disables file logging.
	File string `toml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.Latest,
		Output: OutputConfig{
			Dir:      ".",
			Deck:     paths.DeckFile,
			Images:   paths.ImagesDir,
			Previews: paths.PreviewsDir,
		},
		Images: ImagesConfig{
			Source:  SourceGenerate,
			Width:   1920,
			Height:  1080,
			Quality: 95,
			Seed:    0,
			Only:    []string{},
		},
		Download: DownloadConfig{
			TimeoutSeconds:    30,
			RetryMax:          2,
			MinBytes:          5000,
			SkipExistingBytes: 1000,
			RetryDelayMillis:  500,
			ImageDelayMillis:  300,
			UserAgent:         DefaultUserAgent,
		},
		Fonts: FontsConfig{
			BadgeFallback: "google:Gelasio:700",
		},
		Preview: PreviewConfig{
			Enabled: false,
			Width:   960,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// Example Configuration
// ///////////////////////////////////////////////

// ExampleConfig returns a Config suitable for generating config.default.toml.
// It turns on the optional log file so the example documents it.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Log.File = paths.LogFile
	return cfg
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file at path.
// If the file doesn't exist, returns DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)

	shouldMigrate := migrate.Config.Stale(version)
	if shouldMigrate {
		if backupErr := atomicfile.Write(path+paths.BackupExt, data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		var migrateErr error
		data, _, migrateErr = migrate.Config.Upgrade(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate config: %w", migrateErr)
		}
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "key", key.String())
	}
	cfg.Version = migrate.Config.Latest

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if shouldMigrate {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Output.Deck == "" || !strings.HasSuffix(strings.ToLower(c.Output.Deck), ".pptx") {
		return fmt.Errorf("invalid output.deck %q: must end in .pptx", c.Output.Deck)
	}

	switch c.Images.Source {
	case SourceGenerate, SourceDownload, SourceAuto:
	default:
		return fmt.Errorf("invalid images.source %q: must be generate, download, or auto", c.Images.Source)
	}

	if c.Images.Width < 16 || c.Images.Height < 16 {
		return fmt.Errorf("images.width and images.height must be >= 16, got %dx%d", c.Images.Width, c.Images.Height)
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be 1-100, got %d", c.Images.Quality)
	}

	for _, pattern := range c.Images.Only {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid images.only pattern %q", pattern)
		}
	}

	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("download.timeout_seconds must be > 0, got %d", c.Download.TimeoutSeconds)
	}

	if c.Download.RetryMax < 0 {
		return fmt.Errorf("download.retry_max must be >= 0, got %d", c.Download.RetryMax)
	}

	if c.Download.MinBytes < 0 || c.Download.SkipExistingBytes < 0 {
		return fmt.Errorf("download byte thresholds must be >= 0")
	}

	if c.Download.RetryDelayMillis < 0 {
		return fmt.Errorf("download.retry_delay_millis must be >= 0, got %d", c.Download.RetryDelayMillis)
	}

	if c.Download.ImageDelayMillis < 0 {
		return fmt.Errorf("download.image_delay_millis must be >= 0, got %d", c.Download.ImageDelayMillis)
	}

	if c.Fonts.BadgeFallback != "" && !strings.HasPrefix(c.Fonts.BadgeFallback, "google:") {
		return fmt.Errorf("invalid fonts.badge_fallback %q: must start with google:", c.Fonts.BadgeFallback)
	}

	if c.Preview.Width < 16 {
		return fmt.Errorf("preview.width must be >= 16, got %d", c.Preview.Width)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}

	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// Layout returns the output layout described by the config.
func (c *Config) Layout() paths.Layout {
	return paths.Layout{
		Root:     c.Output.Dir,
		Deck:     c.Output.Deck,
		Images:   c.Output.Images,
		Previews: c.Output.Previews,
	}
}

// ImageSelected reports whether the named image passes the images.only
// filter. An empty filter selects everything.
func (c *Config) ImageSelected(name string) bool {
	if len(c.Images.Only) == 0 {
		return true
	}
	for _, pattern := range c.Images.Only {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Timeout returns the per-request download timeout.
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause after a failed URL.
func (d DownloadConfig) RetryDelay() time.Duration {
	return time.Duration(d.RetryDelayMillis) * time.Millisecond
}

// ImageDelay returns the pause between images.
func (d DownloadConfig) ImageDelay() time.Duration {
	return time.Duration(d.ImageDelayMillis) * time.Millisecond
}
