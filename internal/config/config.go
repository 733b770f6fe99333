// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultSampleRate      = 44100
	DefaultBuffer          = 100 * time.Millisecond
	DefaultResampleQuality = 4
	DefaultTick            = 16 * time.Millisecond
	DefaultFadeTimeout     = 5 * time.Second
	DefaultFadeSpeed       = time.Second
)

// Config represents the fademix configuration.
type Config struct {
	Audio  AudioConfig            `toml:"audio"`
	Mixer  MixerConfig            `toml:"mixer"`
	Fade   FadeConfig             `toml:"fade"`
	TUI    TUIConfig              `toml:"tui"`
	Sounds map[string]SoundConfig `toml:"sounds"`
}

// AudioConfig holds output device settings.
type AudioConfig struct {
	Enabled         bool     `toml:"enabled"`          // false = no device is opened
	SampleRate      int      `toml:"sample_rate"`      // Hz
	Buffer          Duration `toml:"buffer"`           // Speaker buffer length
	ResampleQuality int      `toml:"resample_quality"` // 1-64, see beep.Resample
}

// MixerConfig holds master volume and tick settings.
type MixerConfig struct {
	Volume    float64  `toml:"volume"`     // Negative values are treated as 1.0
	MaxVolume float64  `toml:"max_volume"` // Negative values are treated as 1.0
	Tick      Duration `toml:"tick"`       // Interval between fade updates
}

// FadeConfig holds the default fade parameters.
type FadeConfig struct {
	Timeout Duration `toml:"timeout"` // Hold time before fading out
	Speed   Duration `toml:"speed"`   // Time for a full 0 to 1 ramp
}

// TUIConfig holds interactive board settings.
type TUIConfig struct {
	Clipboard  string  `toml:"clipboard"`   // Copy command, empty = auto-detect
	VolumeStep float64 `toml:"volume_step"` // Increment for volume keys
}

// SoundConfig describes one named sound.
type SoundConfig struct {
	Path   string  `toml:"path"`
	Volume float64 `toml:"volume"` // Negative = effect-only volume
	Loop   bool    `toml:"loop"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			Enabled:         true,
			SampleRate:      DefaultSampleRate,
			Buffer:          Duration(DefaultBuffer),
			ResampleQuality: DefaultResampleQuality,
		},
		Mixer: MixerConfig{
			Volume:    1.0,
			MaxVolume: 1.0,
			Tick:      Duration(DefaultTick),
		},
		Fade: FadeConfig{
			Timeout: Duration(DefaultFadeTimeout),
			Speed:   Duration(DefaultFadeSpeed),
		},
		TUI: TUIConfig{
			VolumeStep: 0.05,
		},
		Sounds: make(map[string]SoundConfig),
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "fademix", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Sounds == nil {
		cfg.Sounds = make(map[string]SoundConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
// Master volumes are not checked: the mixer coerces negative values itself.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Buffer.Duration() <= 0 {
		return fmt.Errorf("buffer must be positive, got %s", c.Audio.Buffer.Duration())
	}
	if c.Audio.ResampleQuality < 1 || c.Audio.ResampleQuality > 64 {
		return fmt.Errorf("resample_quality must be between 1 and 64, got %d", c.Audio.ResampleQuality)
	}

	if c.Mixer.Tick.Duration() <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Mixer.Tick.Duration())
	}

	if c.Fade.Timeout.Duration() < 0 {
		return fmt.Errorf("fade timeout must not be negative, got %s", c.Fade.Timeout.Duration())
	}
	if c.Fade.Speed.Duration() <= 0 {
		return fmt.Errorf("fade speed must be positive, got %s", c.Fade.Speed.Duration())
	}

	if c.TUI.VolumeStep <= 0 || c.TUI.VolumeStep > 1 {
		return fmt.Errorf("volume_step must be in (0, 1], got %g", c.TUI.VolumeStep)
	}

	for _, key := range c.SoundKeys() {
		if strings.TrimSpace(key) == "" {
			return errors.New("sound key must not be empty")
		}
		if c.Sounds[key].Path == "" {
			return fmt.Errorf("sound %q has no path", key)
		}
	}

	return nil
}

// SoundKeys returns the configured sound keys in sorted order.
func (c *Config) SoundKeys() []string {
	return slices.Sorted(maps.Keys(c.Sounds))
}

// SoundPath returns the path of the named sound with ~ expanded.
func (c *Config) SoundPath(key string) string {
	return ExpandPath(c.Sounds[key].Path)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
