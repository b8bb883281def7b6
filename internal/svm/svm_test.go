package svm

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func testGaussian() *Gaussian {
	return &Gaussian{
		SupportVectors: [][]float64{{0, 0}, {3, 4}},
		Weights:        []float64{1, -2},
		Bias:           0.5,
		Gamma:          0.5,
	}
}

func TestGaussian_Decision(t *testing.T) {
	g := testGaussian()
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"on first vector", []float64{0, 0}, 1 - 2*math.Exp(-0.5*25) + 0.5},
		{"on second vector", []float64{3, 4}, math.Exp(-0.5*25) - 2 + 0.5},
		{"between", []float64{1, 1}, math.Exp(-1) - 2*math.Exp(-0.5*13) + 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Decision(tt.x)
			if err != nil {
				t.Fatal(err)
			}
			if !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGaussian_Probability(t *testing.T) {
	g := &Gaussian{SupportVectors: [][]float64{{0, 0}}, Weights: []float64{1}, Gamma: 1}

	p, err := g.Probability([]float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if want := 1 / (1 + math.Exp(-1)); !near(p, want) {
		t.Errorf("default scaling: got %v, want %v", p, want)
	}

	g.Platt = Platt{A: -2, B: 1}
	p, _ = g.Probability([]float64{0, 0})
	if want := 1 / (1 + math.Exp(-2+1)); !near(p, want) {
		t.Errorf("fitted scaling: got %v, want %v", p, want)
	}

	far, _ := g.Probability([]float64{100, 100})
	if far < 0 || far > 1 || far >= p {
		t.Errorf("far probability %v should be in [0,1] and below %v", far, p)
	}
}

func TestGaussian_DimensionMismatch(t *testing.T) {
	_, err := testGaussian().Probability([]float64{1, 2, 3})
	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func TestGaussian_Validate(t *testing.T) {
	tests := []struct {
		name string
		g    Gaussian
	}{
		{"empty", Gaussian{Gamma: 1}},
		{"missing weight", Gaussian{SupportVectors: [][]float64{{1}, {2}}, Weights: []float64{1}, Gamma: 1}},
		{"ragged", Gaussian{SupportVectors: [][]float64{{1, 2}, {2}}, Weights: []float64{1, 1}, Gamma: 1}},
		{"zero gamma", Gaussian{SupportVectors: [][]float64{{1}}, Weights: []float64{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); !errors.Is(err, ErrInvalidModel) {
				t.Errorf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
	if err := testGaussian().Validate(); err != nil {
		t.Errorf("valid model rejected: %v", err)
	}
}

func TestGaussian_Concurrent(t *testing.T) {
	g := testGaussian()
	want, _ := g.Probability([]float64{1, 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got, _ := g.Probability([]float64{1, 2}); got != want {
					t.Errorf("got %v, want %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLinear(t *testing.T) {
	l := &Linear{Weights: []float64{1, -1, 2}, Bias: -1}
	f, err := l.Decision([]float64{2, 1, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !near(f, 1) {
		t.Errorf("decision = %v, want 1", f)
	}
	if _, err := l.Probability([]float64{1}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
	if err := (&Linear{}).Validate(); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got %v", err)
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantDim int
		wantErr bool
	}{
		{
			name:    "gaussian",
			json:    `{"kernel":"gaussian","gamma":0.1,"bias":-0.2,"support_vectors":[[1,2,3],[4,5,6]],"weights":[0.5,-0.5],"platt":{"a":-1.5,"b":0.1}}`,
			wantDim: 3,
		},
		{
			name:    "rbf alias",
			json:    `{"kernel":"rbf","gamma":1,"support_vectors":[[1]],"weights":[1]}`,
			wantDim: 1,
		},
		{
			name:    "linear",
			json:    `{"kernel":"linear","weights":[1,2],"bias":3}`,
			wantDim: 2,
		},
		{
			name:    "no kernel field",
			json:    `{"gamma":2,"support_vectors":[[0,1]],"weights":[3]}`,
			wantDim: 2,
		},
		{name: "no kernel field, invalid", json: `{"gamma":0,"support_vectors":[[0,1]],"weights":[3]}`, wantErr: true},
		{name: "unknown kernel", json: `{"kernel":"poly"}`, wantErr: true},
		{name: "invalid model", json: `{"kernel":"gaussian","gamma":0,"support_vectors":[[1]],"weights":[1]}`, wantErr: true},
		{name: "malformed", json: `{"kernel":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Read(strings.NewReader(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Dim() != tt.wantDim {
				t.Errorf("dim = %d, want %d", m.Dim(), tt.wantDim)
			}
		})
	}
}

func TestReadGaussian(t *testing.T) {
	g, err := ReadGaussian(strings.NewReader(`{"gamma":2,"support_vectors":[[0,1]],"weights":[3]}`))
	if err != nil {
		t.Fatal(err)
	}
	if g.Gamma != 2 || g.Weights[0] != 3 || g.Dim() != 2 {
		t.Errorf("decoded %+v", g)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{"kernel":"linear","weights":[1]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(*Linear); !ok {
		t.Errorf("got %T, want *Linear", m)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
