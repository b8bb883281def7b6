package hog

import (
	"fmt"

	"github.com/ironsheep/hogscan/internal/imaging"
)

// contextWidth is the replicated pixel ring around each cell that the
// central differences read from.
const contextWidth = 1

// SliceCells partitions window into CellSize x CellSize cells in row-major
// order. Every cell carries one pixel of context on each side, taken from
// the window's edge-replicated border, so cells are (CellSize+2) pixels
// square.
func (c Config) SliceCells(window imaging.PixelBuffer) ([]imaging.PixelBuffer, error) {
	if window.Width != c.WindowWidth || window.Height != c.WindowHeight {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrWindowSize, window.Width, window.Height, c.WindowWidth, c.WindowHeight)
	}

	framed, err := imaging.MakeBordered(window, contextWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to frame window: %w", err)
	}

	side := c.CellSize + 2*contextWidth
	bpp := window.BytesPerPixel
	rowBytes := side * bpp

	cells := make([]imaging.PixelBuffer, 0, c.CellsX()*c.CellsY())
	for y := 0; y < c.WindowHeight; y += c.CellSize {
		for x := 0; x < c.WindowWidth; x += c.CellSize {
			g := imaging.NewGeometry(side, side, window.Format)
			g.DpiX, g.DpiY = window.DpiX, window.DpiY
			pix := make([]byte, g.Len())
			for k := 0; k < side; k++ {
				// framed pixel (x, y) is the top-left context pixel of this cell
				si := framed.Offset(x, y+k)
				copy(pix[k*rowBytes:(k+1)*rowBytes], framed.Pix[si:si+rowBytes])
			}
			cells = append(cells, imaging.PixelBuffer{Geometry: g, Pix: pix})
		}
	}
	return cells, nil
}
