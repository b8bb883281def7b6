// Package config gathers every tunable of the detector in one place.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// HOGSCAN_* environment variables, then command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/hogscan/internal/cluster"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
	"github.com/ironsheep/hogscan/internal/logging"
	"github.com/ironsheep/hogscan/internal/pedestrian"
	"github.com/ironsheep/hogscan/internal/scan"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = "HOGSCAN_CONFIG"

// Preprocess holds the filter engine settings. Clip amounts are percentages.
type Preprocess struct {
	BlackPercent float64    `toml:"black_percent"`
	WhitePercent float64    `toml:"white_percent"`
	Filters      []string   `toml:"filters"`
	Weights      [4]float64 `toml:"weights"`
}

// Cluster holds the clustering settings.
type Cluster struct {
	Tolerance     float64 `toml:"tolerance"`
	MaxIterations int     `toml:"max_iterations"`
}

// Config is the full set of options.
type Config struct {
	HOG        hog.Config   `toml:"hog"`
	Scan       scan.Options `toml:"scan"`
	Preprocess Preprocess   `toml:"preprocess"`
	Cluster    Cluster      `toml:"cluster"`
	LogLevel   string       `toml:"log_level"`
	// ModelPath is the JSON classifier used for detection.
	ModelPath string `toml:"model_path"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		HOG:  hog.DefaultConfig(),
		Scan: scan.DefaultOptions(),
		Preprocess: Preprocess{
			Filters: []string{"sobel"},
			Weights: imaging.DefaultGrayscaleWeights,
		},
		Cluster: Cluster{
			Tolerance:     pedestrian.DefaultTolerance,
			MaxIterations: cluster.DefaultMaxIterations,
		},
		LogLevel: "info",
	}
}

// Load builds a configuration from defaults, the TOML file at path (or at
// $HOGSCAN_CONFIG when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnv(EnvConfigPath, "")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) loadEnv() error {
	var err error
	setInt := func(key string, dst *int) {
		if v := getEnv(key, ""); v != "" && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := getEnv(key, ""); v != "" && err == nil {
			f, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
				return
			}
			*dst = f
		}
	}

	setInt("HOGSCAN_CELL_SIZE", &c.HOG.CellSize)
	setInt("HOGSCAN_BINS", &c.HOG.Bins)
	setInt("HOGSCAN_CELLS_PER_BLOCK", &c.HOG.CellsPerBlock)
	setInt("HOGSCAN_STEP", &c.Scan.Step)
	setFloat("HOGSCAN_THRESHOLD", &c.Scan.Threshold)
	setFloat("HOGSCAN_GROWTH", &c.Scan.Growth)
	setFloat("HOGSCAN_BLACK_PERCENT", &c.Preprocess.BlackPercent)
	setFloat("HOGSCAN_WHITE_PERCENT", &c.Preprocess.WhitePercent)
	setFloat("HOGSCAN_TOLERANCE", &c.Cluster.Tolerance)
	setInt("HOGSCAN_MAX_ITERATIONS", &c.Cluster.MaxIterations)
	if err != nil {
		return err
	}

	if v := getEnv("HOGSCAN_FILTERS", ""); v != "" {
		c.Preprocess.Filters = splitList(v)
	}
	c.LogLevel = getEnv("HOGSCAN_LOG_LEVEL", c.LogLevel)
	c.ModelPath = getEnv("HOGSCAN_MODEL", c.ModelPath)
	return nil
}

// BindFlags registers flags on fs that write straight into c. Their
// defaults are c's current values, so flags override file and environment.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Scan.Step, "step", c.Scan.Step, "horizontal window stride in pixels")
	fs.Float64Var(&c.Scan.Threshold, "threshold", c.Scan.Threshold, "minimum window probability")
	fs.Float64Var(&c.Scan.Growth, "growth", c.Scan.Growth, "window growth factor between scale passes")
	fs.IntVar(&c.HOG.CellSize, "cell", c.HOG.CellSize, "HOG cell size in pixels")
	fs.IntVar(&c.HOG.Bins, "bins", c.HOG.Bins, "orientation bins per cell")
	fs.Float64Var(&c.Preprocess.BlackPercent, "black", c.Preprocess.BlackPercent, "percent of darkest pixels clipped by the contrast stretch")
	fs.Float64Var(&c.Preprocess.WhitePercent, "white", c.Preprocess.WhitePercent, "percent of brightest pixels clipped by the contrast stretch")
	fs.Float64Var(&c.Cluster.Tolerance, "tolerance", c.Cluster.Tolerance, "cluster distance threshold in pixels")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.ModelPath, "model", c.ModelPath, "path to the JSON classifier")
	fs.Func("filters", "comma separated preprocessing filters (default "+strings.Join(c.Preprocess.Filters, ",")+")", func(s string) error {
		c.Preprocess.Filters = splitList(s)
		return nil
	})
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.HOG.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.PreprocessOptions(); err != nil {
		return err
	}
	if !(c.Cluster.Tolerance > 0) {
		return fmt.Errorf("%w: cluster tolerance %v must be positive", ErrInvalidConfig, c.Cluster.Tolerance)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// PreprocessOptions converts the percentages to fractions and parses the
// filter names.
func (c *Config) PreprocessOptions() (imaging.PreprocessOptions, error) {
	p := c.Preprocess
	if p.BlackPercent < 0 || p.WhitePercent < 0 || p.BlackPercent+p.WhitePercent > 100 {
		return imaging.PreprocessOptions{}, fmt.Errorf("%w: clip percentages %v/%v", ErrInvalidConfig, p.BlackPercent, p.WhitePercent)
	}
	filters, err := imaging.ParseFilters(p.Filters)
	if err != nil {
		return imaging.PreprocessOptions{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return imaging.PreprocessOptions{
		Weights:       p.Weights,
		BlackFraction: p.BlackPercent / 100,
		WhiteFraction: p.WhitePercent / 100,
		Filters:       filters,
	}, nil
}

// DetectorOptions projects c onto the detector's options.
func (c *Config) DetectorOptions() (pedestrian.Options, error) {
	pre, err := c.PreprocessOptions()
	if err != nil {
		return pedestrian.Options{}, err
	}
	return pedestrian.Options{
		Scan:          c.Scan,
		Preprocess:    pre,
		Tolerance:     c.Cluster.Tolerance,
		MaxIterations: c.Cluster.MaxIterations,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
