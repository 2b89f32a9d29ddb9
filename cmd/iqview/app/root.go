package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roman-kulish/radio-inspector/internal/config"
)

const envPrefix = "IQVIEW"

// App carries what every command needs once the configuration is loaded.
type App struct {
	viper    *viper.Viper
	config   *config.Config
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

// overrides maps configuration keys to the persistent flags setting them.
var overrides = map[string]string{
	"settings.logLevel":       "log-level",
	"display.sampleRate":      "sample-rate",
	"display.centerFrequency": "center-frequency",
	"display.fftSize":         "fft-size",
	"display.zoomLevel":       "zoom",
	"display.powerMin":        "power-min",
	"display.powerMax":        "power-max",
	"display.squelch":         "squelch",
	"display.theme":           "theme",
	"storage.dbPath":          "db",
}

// NewRootCommand builds the iqview command tree. The level of logger is
// driven through logLevel once the configuration is known.
func NewRootCommand(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	a := &App{
		viper:    viper.New(),
		logger:   logger,
		logLevel: logLevel,
	}

	root := &cobra.Command{
		Use:   "iqview",
		Short: "Inspect IQ recordings",
		Long: `Inspect IQ recordings: render spectrograms and derived plots,
measure and extract symbols, export samples and keep annotations.

Configuration is read from the file given with --config, then from
IQVIEW_* environment variables (for example IQVIEW_DISPLAY_FFTSIZE),
then from flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to the YAML configuration file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Float64("sample-rate", 0, "sample rate in Hz when the recording does not say")
	flags.Float64("center-frequency", 0, "centre frequency in Hz when the recording does not say")
	flags.Int("fft-size", 0, "FFT size, a power of two")
	flags.Int("zoom", 0, "zoom level, FFT columns per window")
	flags.Float64("power-min", 0, "power in dBFS at the bottom of the colour ramp")
	flags.Float64("power-max", 0, "power in dBFS at the top of the colour ramp")
	flags.Int("squelch", 0, "dB above power-min below which cells are black")
	flags.String("theme", "", "colour theme (default, classic, grayscale, jungle, thermal, marine)")
	flags.String("db", "", "annotation database")

	root.AddCommand(
		newInfoCommand(a),
		newRenderCommand(a),
		newExportCommand(a),
		newSymbolsCommand(a),
		newAnnotateCommand(a),
	)
	return root
}

// loadConfig reads the configuration file over the defaults and applies the
// environment and the flags that were set on top of it.
func (a *App) loadConfig(flags *pflag.FlagSet) error {
	v := a.viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, name := range overrides {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding environment for %q: %w", key, err)
		}
	}
	if err := v.BindPFlag("config", flags.Lookup("config")); err != nil {
		return fmt.Errorf("binding flag %q: %w", "config", err)
	}

	c := config.Defaults()
	if path := v.GetString("config"); path != "" {
		var err error
		if c, err = config.LoadConfig(path); err != nil {
			return fmt.Errorf("failed to load configuration file: %w", err)
		}
	}

	changed := func(key string) bool {
		return flags.Changed(overrides[key]) || isEnvSet(key)
	}
	if changed("settings.logLevel") {
		c.Settings.LogLevel = v.GetString("settings.logLevel")
	}
	if changed("display.sampleRate") {
		c.Display.SampleRate = v.GetFloat64("display.sampleRate")
	}
	if changed("display.centerFrequency") {
		c.Display.CenterFrequency = v.GetFloat64("display.centerFrequency")
	}
	if changed("display.fftSize") {
		c.Display.FFTSize = v.GetInt("display.fftSize")
	}
	if changed("display.zoomLevel") {
		c.Display.ZoomLevel = v.GetInt("display.zoomLevel")
	}
	if changed("display.powerMin") {
		c.Display.PowerMin = v.GetFloat64("display.powerMin")
	}
	if changed("display.powerMax") {
		c.Display.PowerMax = v.GetFloat64("display.powerMax")
	}
	if changed("display.squelch") {
		c.Display.Squelch = v.GetInt("display.squelch")
	}
	if changed("display.theme") {
		c.Display.Theme = v.GetString("display.theme")
	}
	if changed("storage.dbPath") {
		c.Storage.DBPath = v.GetString("storage.dbPath")
	}

	if err := c.Validate(); err != nil {
		return err
	}

	a.logLevel.Set(c.Settings.Level())
	a.config = c
	a.logger.Debug("configuration loaded",
		slog.String("config", v.GetString("config")),
		slog.Float64("sampleRate", c.Display.SampleRate),
		slog.Int("fftSize", c.Display.FFTSize),
		slog.Int("zoom", c.Display.ZoomLevel),
		slog.String("theme", c.Display.Theme))
	return nil
}

// isEnvSet reports whether the environment variable of key is present.
func isEnvSet(key string) bool {
	name := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	_, ok := os.LookupEnv(name)
	return ok
}
