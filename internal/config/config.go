package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"edakit/internal/errors"
)

// Documented defaults for the analysis parameters.
const (
	DefaultAlpha             = 0.05
	DefaultWhiskerMultiplier = 1.5
	DefaultPlotWidthCm       = 16.0
	DefaultPlotHeightCm      = 12.0
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Plot     PlotConfig
	Log      LogConfig
}

// AnalysisConfig holds the statistical defaults used when a caller does not
// supply its own value.
type AnalysisConfig struct {
	Alpha             float64
	WhiskerMultiplier float64
}

// PlotConfig holds figure rendering settings
type PlotConfig struct {
	WidthCm  float64
	HeightCm float64
	Dir      string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Alpha:             DefaultAlpha,
			WhiskerMultiplier: DefaultWhiskerMultiplier,
		},
		Plot: PlotConfig{
			WidthCm:  DefaultPlotWidthCm,
			HeightCm: DefaultPlotHeightCm,
			Dir:      ".",
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// Load reads an optional .env file, then configuration from environment
// variables, and validates it. Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "failed to load env file %s", f)
		}
	}

	config := &Config{
		Analysis: loadAnalysisConfig(),
		Plot:     loadPlotConfig(),
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Alpha:             getEnvFloatOrDefault("EDAKIT_ALPHA", DefaultAlpha),
		WhiskerMultiplier: getEnvFloatOrDefault("EDAKIT_WHISKER", DefaultWhiskerMultiplier),
	}
}

func loadPlotConfig() PlotConfig {
	return PlotConfig{
		WidthCm:  getEnvFloatOrDefault("EDAKIT_PLOT_WIDTH_CM", DefaultPlotWidthCm),
		HeightCm: getEnvFloatOrDefault("EDAKIT_PLOT_HEIGHT_CM", DefaultPlotHeightCm),
		Dir:      getEnvOrDefault("EDAKIT_PLOT_DIR", "."),
	}
}

// Validate checks ranges of the configured values
func (c *Config) Validate() error {
	if c.Analysis.Alpha <= 0 || c.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0, 1)")
	}
	if c.Analysis.WhiskerMultiplier < 0 {
		return errors.ConfigInvalid("whisker multiplier must be non-negative")
	}
	if c.Plot.WidthCm <= 0 || c.Plot.HeightCm <= 0 {
		return errors.ConfigInvalid("plot dimensions must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
