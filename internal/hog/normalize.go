package hog

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// NormalizeBlocks groups the row-major cell histograms into overlapping
// BlockSide x BlockSide blocks with a stride of one cell. Each block's
// concatenated histograms are scaled by 1/sqrt(|v|^2 + Epsilon) and
// appended in block scan order.
func (c Config) NormalizeBlocks(hists [][]float64) ([]float64, error) {
	cols, rows := c.CellsX(), c.CellsY()
	if len(hists) != cols*rows {
		return nil, fmt.Errorf("got %d cell histograms, want %d", len(hists), cols*rows)
	}

	side := c.BlockSide()
	blockLen := c.CellsPerBlock * c.Bins
	out := make([]float64, 0, c.FeatureLength())
	block := make([]float64, 0, blockLen)

	for by := 0; by < c.BlocksY(); by++ {
		for bx := 0; bx < c.BlocksX(); bx++ {
			block = block[:0]
			for m := 0; m < side; m++ {
				for n := 0; n < side; n++ {
					h := hists[(by+m)*cols+bx+n]
					if len(h) != c.Bins {
						return nil, fmt.Errorf("cell histogram has %d bins, want %d", len(h), c.Bins)
					}
					block = append(block, h...)
				}
			}

			norm := floats.Norm(block, 2)
			out = append(out, block...)
			floats.Scale(1/math.Sqrt(norm*norm+c.Epsilon), out[len(out)-blockLen:])
		}
	}
	return out, nil
}
