package svm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrDimension is returned when a feature vector does not match the
	// model's dimension.
	ErrDimension = errors.New("feature dimension mismatch")
	// ErrInvalidModel is returned by Validate.
	ErrInvalidModel = errors.New("invalid model")
)

// Platt maps a decision value f to 1/(1+exp(A*f+B)). The zero value is
// treated as A=-1, B=0, the plain logistic function.
type Platt struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (p Platt) probability(f float64) float64 {
	a := p.A
	if a == 0 && p.B == 0 {
		a = -1
	}
	return 1 / (1 + math.Exp(a*f+p.B))
}

// Gaussian is a kernel machine with an RBF kernel:
//
//	f(x) = sum_i w_i * exp(-gamma * |x - sv_i|^2) + bias
type Gaussian struct {
	SupportVectors [][]float64 `json:"support_vectors"`
	Weights        []float64   `json:"weights"`
	Bias           float64     `json:"bias"`
	Gamma          float64     `json:"gamma"`
	Platt          Platt       `json:"platt"`
}

// Dim is the feature vector length the model expects.
func (g *Gaussian) Dim() int {
	if len(g.SupportVectors) == 0 {
		return 0
	}
	return len(g.SupportVectors[0])
}

// Validate checks that every support vector has a weight and the same
// length, and that gamma is positive.
func (g *Gaussian) Validate() error {
	if len(g.SupportVectors) == 0 {
		return fmt.Errorf("%w: no support vectors", ErrInvalidModel)
	}
	if len(g.Weights) != len(g.SupportVectors) {
		return fmt.Errorf("%w: %d weights for %d support vectors", ErrInvalidModel, len(g.Weights), len(g.SupportVectors))
	}
	dim := g.Dim()
	for i, sv := range g.SupportVectors {
		if len(sv) != dim || dim == 0 {
			return fmt.Errorf("%w: support vector %d has length %d, want %d", ErrInvalidModel, i, len(sv), dim)
		}
	}
	if !(g.Gamma > 0) {
		return fmt.Errorf("%w: gamma %v must be positive", ErrInvalidModel, g.Gamma)
	}
	return nil
}

// Decision returns the raw decision value for x.
func (g *Gaussian) Decision(x []float64) (float64, error) {
	if len(x) != g.Dim() {
		return 0, fmt.Errorf("%w: got %d, model expects %d", ErrDimension, len(x), g.Dim())
	}
	sum := g.Bias
	for i, sv := range g.SupportVectors {
		d := floats.Distance(x, sv, 2)
		sum += g.Weights[i] * math.Exp(-g.Gamma*d*d)
	}
	return sum, nil
}

// Probability is Decision passed through Platt scaling. It is safe for
// concurrent use.
func (g *Gaussian) Probability(x []float64) (float64, error) {
	f, err := g.Decision(x)
	if err != nil {
		return 0, err
	}
	return g.Platt.probability(f), nil
}

// Linear is a linear machine: f(x) = w.x + bias.
type Linear struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Platt   Platt     `json:"platt"`
}

// Dim is the feature vector length the model expects.
func (l *Linear) Dim() int { return len(l.Weights) }

// Validate rejects an empty weight vector.
func (l *Linear) Validate() error {
	if len(l.Weights) == 0 {
		return fmt.Errorf("%w: no weights", ErrInvalidModel)
	}
	return nil
}

// Decision returns w.x + bias.
func (l *Linear) Decision(x []float64) (float64, error) {
	if len(x) != len(l.Weights) {
		return 0, fmt.Errorf("%w: got %d, model expects %d", ErrDimension, len(x), len(l.Weights))
	}
	return floats.Dot(l.Weights, x) + l.Bias, nil
}

// Probability is Decision passed through Platt scaling.
func (l *Linear) Probability(x []float64) (float64, error) {
	f, err := l.Decision(x)
	if err != nil {
		return 0, err
	}
	return l.Platt.probability(f), nil
}
