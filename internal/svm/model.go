package svm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Model is a trained classifier that scores feature vectors.
type Model interface {
	Dim() int
	Validate() error
	Decision(x []float64) (float64, error)
	Probability(x []float64) (float64, error)
}

// Kernel names accepted in model files.
const (
	KernelGaussian = "gaussian"
	KernelLinear   = "linear"
)

type modelFile struct {
	Kernel string `json:"kernel"`
}

// Read decodes a JSON model. The "kernel" field selects the model type:
// "gaussian" (also "rbf") or "linear"; files without it are read as
// Gaussian models. The model is validated before it is
// returned.
func Read(r io.Reader) (Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var head modelFile
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	if head.Kernel == "" {
		g, err := ReadGaussian(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	var m Model
	switch head.Kernel {
	case KernelGaussian, "rbf":
		m = &Gaussian{}
	case KernelLinear:
		m = &Linear{}
	default:
		return nil, fmt.Errorf("%w: unknown kernel %q", ErrInvalidModel, head.Kernel)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s model: %w", head.Kernel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadGaussian decodes a Gaussian model without the kernel field. Read uses
// it for model files that predate the field.
func ReadGaussian(r io.Reader) (*Gaussian, error) {
	var g Gaussian
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Load reads a model file from disk.
func Load(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	return Read(f)
}
