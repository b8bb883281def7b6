package hog

import (
	"fmt"

	"github.com/ironsheep/hogscan/internal/imaging"
)

// Extractor turns normalized windows into feature vectors. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	cfg Config
}

// NewExtractor validates cfg and returns an extractor for it.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg}, nil
}

// Config returns the layout the extractor was built with.
func (e *Extractor) Config() Config { return e.cfg }

// FeatureLength is the length of every vector Extract returns.
func (e *Extractor) FeatureLength() int { return e.cfg.FeatureLength() }

// WindowSize returns the window dimensions Extract accepts.
func (e *Extractor) WindowSize() (width, height int) {
	return e.cfg.WindowWidth, e.cfg.WindowHeight
}

// Extract computes the descriptor of window, which must match the
// configured window size exactly.
func (e *Extractor) Extract(window imaging.PixelBuffer) ([]float64, error) {
	cells, err := e.cfg.SliceCells(window)
	if err != nil {
		return nil, err
	}

	hists := make([][]float64, len(cells))
	for i, cell := range cells {
		hists[i] = e.cfg.Histogram(Gradients(cell))
	}

	features, err := e.cfg.NormalizeBlocks(hists)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize blocks: %w", err)
	}
	return features, nil
}
