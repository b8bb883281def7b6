package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/hogscan/internal/imaging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hogscan.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Scan.Step != 64 || cfg.Scan.Threshold != 0.7 || cfg.Scan.Growth != 1.5 {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}
	if cfg.HOG.CellSize != 8 || cfg.HOG.Bins != 9 || cfg.HOG.CellsPerBlock != 4 {
		t.Errorf("hog defaults = %+v", cfg.HOG)
	}
	if cfg.Cluster.Tolerance != 64 {
		t.Errorf("tolerance = %v, want 64", cfg.Cluster.Tolerance)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
model_path = "/models/people.json"

[hog]
bins = 12

[scan]
step = 32
threshold = 0.9

[preprocess]
black_percent = 2
white_percent = 3
filters = ["gaussian", "sobel"]

[cluster]
tolerance = 48
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HOG.Bins != 12 || cfg.HOG.CellSize != 8 {
		t.Errorf("hog = %+v", cfg.HOG)
	}
	if cfg.Scan.Step != 32 || cfg.Scan.Threshold != 0.9 || cfg.Scan.Growth != 1.5 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.Cluster.Tolerance != 48 || cfg.LogLevel != "debug" || cfg.ModelPath != "/models/people.json" {
		t.Errorf("config = %+v", cfg)
	}

	pre, err := cfg.PreprocessOptions()
	if err != nil {
		t.Fatal(err)
	}
	if pre.BlackFraction != 0.02 || pre.WhiteFraction != 0.03 {
		t.Errorf("fractions = %v/%v", pre.BlackFraction, pre.WhiteFraction)
	}
	if len(pre.Filters) != 2 || pre.Filters[0] != imaging.FilterGaussian || pre.Filters[1] != imaging.FilterSobel {
		t.Errorf("filters = %v", pre.Filters)
	}
}

func TestLoad_FileFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "[scan]\nstep = 16\n"))
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Step != 16 {
		t.Errorf("step = %d, want 16", cfg.Scan.Step)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[scan]\nstep = 16\nthreshold = 0.8\n")
	t.Setenv("HOGSCAN_STEP", "8")
	t.Setenv("HOGSCAN_FILTERS", "laplacian, edge")
	t.Setenv("HOGSCAN_MODEL", "env.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Step != 8 || cfg.Scan.Threshold != 0.8 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if len(cfg.Preprocess.Filters) != 2 || cfg.Preprocess.Filters[1] != "edge" {
		t.Errorf("filters = %v", cfg.Preprocess.Filters)
	}
	if cfg.ModelPath != "env.json" {
		t.Errorf("model = %q", cfg.ModelPath)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown key", file: "[scan]\nstride = 3\n"},
		{name: "malformed", file: "[scan\n"},
		{name: "invalid hog layout", file: "[hog]\ncells_per_block = 3\n"},
		{name: "unknown filter", file: "[preprocess]\nfilters = [\"emboss\"]\n"},
		{name: "clip over 100", file: "[preprocess]\nblack_percent = 60\nwhite_percent = 50\n"},
		{name: "bad env integer", env: map[string]string{"HOGSCAN_STEP": "wide"}},
		{name: "bad env float", env: map[string]string{"HOGSCAN_THRESHOLD": "high"}},
		{name: "bad log level", env: map[string]string{"HOGSCAN_LOG_LEVEL": "chatty"}},
		{name: "zero tolerance", env: map[string]string{"HOGSCAN_TOLERANCE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBindFlags(t *testing.T) {
	cfg := Default()
	cfg.Scan.Step = 16

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"-threshold", "0.5", "-filters", "gaussian,sobel", "-model", "m.json"}); err != nil {
		t.Fatal(err)
	}

	if cfg.Scan.Step != 16 {
		t.Errorf("unset flag changed step to %d", cfg.Scan.Step)
	}
	if cfg.Scan.Threshold != 0.5 || cfg.ModelPath != "m.json" {
		t.Errorf("config = %+v", cfg)
	}
	if len(cfg.Preprocess.Filters) != 2 {
		t.Errorf("filters = %v", cfg.Preprocess.Filters)
	}
}

func TestDetectorOptions(t *testing.T) {
	cfg := Default()
	cfg.Cluster.Tolerance = 32
	opts, err := cfg.DetectorOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Tolerance != 32 || opts.Scan != cfg.Scan || len(opts.Preprocess.Filters) != 1 {
		t.Errorf("options = %+v", opts)
	}
	if opts.Preprocess.Weights != imaging.DefaultGrayscaleWeights {
		t.Errorf("weights = %v", opts.Preprocess.Weights)
	}
}
