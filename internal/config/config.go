// Package config loads the viewer configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/radio-inspector/internal/cursor"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/spectrogram"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

// Config is the viewer configuration.
type Config struct {
	Settings Settings      `yaml:"settings" mapstructure:"settings"`
	Display  DisplayConfig `yaml:"display" mapstructure:"display"`
	Cache    CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Export   ExportConfig  `yaml:"export" mapstructure:"export"`
	Storage  StorageConfig `yaml:"storage" mapstructure:"storage"`
}

// Settings holds global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel" mapstructure:"logLevel"`
}

// Level parses LogLevel, defaulting to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DisplayConfig is the initial view state.
type DisplayConfig struct {
	SampleRate      float64 `yaml:"sampleRate" mapstructure:"sampleRate"`
	CenterFrequency float64 `yaml:"centerFrequency" mapstructure:"centerFrequency"`
	FFTSize         int     `yaml:"fftSize" mapstructure:"fftSize"`
	ZoomLevel       int     `yaml:"zoomLevel" mapstructure:"zoomLevel"`
	PowerMin        float64 `yaml:"powerMin" mapstructure:"powerMin"`
	PowerMax        float64 `yaml:"powerMax" mapstructure:"powerMax"`
	Squelch         int     `yaml:"squelch" mapstructure:"squelch"`
	Theme           string  `yaml:"theme" mapstructure:"theme"`
	TimeScale       bool    `yaml:"timeScale" mapstructure:"timeScale"`
	Annotations     bool    `yaml:"annotations" mapstructure:"annotations"`
}

// Settings returns the spectrogram settings of the display.
func (d DisplayConfig) Settings() spectrogram.Settings {
	return spectrogram.Settings{
		FFTSize:   d.FFTSize,
		ZoomLevel: d.ZoomLevel,
		PowerMin:  d.PowerMin,
		PowerMax:  d.PowerMax,
		Squelch:   d.Squelch,
	}.Clamp()
}

// CacheConfig sizes the spectrogram tile caches.
type CacheConfig struct {
	TileWidth int      `yaml:"tileWidth" mapstructure:"tileWidth"`
	Budget    ByteSize `yaml:"budget" mapstructure:"budget"`
}

// ExportConfig tunes sample export.
type ExportConfig struct {
	ChunkSize int64 `yaml:"chunkSize" mapstructure:"chunkSize"`
}

// StorageConfig locates the annotation database.
type StorageConfig struct {
	DBPath string `yaml:"dbPath" mapstructure:"dbPath"`
}

// ByteSize is a size in bytes written either as a number or as a humanized
// string like "40 MiB".
type ByteSize int64

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	n, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("config.ByteSize: failed to parse: %s", err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(max(0, b)))
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	s := spectrogram.DefaultSettings()
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Display: DisplayConfig{
			SampleRate: sample.DefaultSampleRate,
			FFTSize:    s.FFTSize,
			ZoomLevel:  s.ZoomLevel,
			PowerMin:   s.PowerMin,
			PowerMax:   s.PowerMax,
			Squelch:    s.Squelch,
			Theme:      string(spectrogram.DefaultTheme),
		},
		Cache: CacheConfig{
			TileWidth: spectrogram.DefaultTileWidth,
			Budget:    spectrogram.DefaultCacheBudget,
		},
		Export:  ExportConfig{ChunkSize: cursor.DefaultChunkSize},
		Storage: StorageConfig{DBPath: "iqview.db"},
	}
}

// LoadConfig reads path over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	c := Defaults()

	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err = yaml.Unmarshal(p, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate clamps out of range values and reports settings that cannot be
// repaired.
func (c *Config) Validate() error {
	var errs []error

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid log level: %q", c.Settings.LogLevel))
	}
	if !spectrogram.ValidTheme(spectrogram.ColorTheme(c.Display.Theme)) {
		errs = append(errs, fmt.Errorf("config: invalid theme: %q", c.Display.Theme))
	}
	if c.Display.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("config: sample rate must be positive: %g given", c.Display.SampleRate))
	}
	if c.Cache.Budget <= 0 {
		errs = append(errs, fmt.Errorf("config: cache budget must be positive: %d given", c.Cache.Budget))
	}

	d := &c.Display
	d.FFTSize = view.ClampFFTSize(d.FFTSize)
	d.ZoomLevel = view.ClampZoom(d.ZoomLevel, d.FFTSize)
	if d.PowerMax < d.PowerMin {
		d.PowerMin, d.PowerMax = d.PowerMax, d.PowerMin
	}
	d.Squelch = max(0, d.Squelch)

	if c.Cache.TileWidth <= 0 {
		c.Cache.TileWidth = spectrogram.DefaultTileWidth
	}
	if c.Export.ChunkSize <= 0 {
		c.Export.ChunkSize = cursor.DefaultChunkSize
	}

	return errors.Join(errs...)
}
