package hog

import (
	"math"

	"github.com/ironsheep/hogscan/internal/imaging"
)

// MaxAngle is the exclusive upper bound of unsigned orientations in degrees.
const MaxAngle = 180

// GradientCell holds the per-pixel gradients of one cell interior in
// row-major order.
type GradientCell struct {
	Magnitude []int
	// Angle is the unsigned orientation in whole degrees, in [0, MaxAngle).
	Angle []int
}

// Gradients computes central differences on channel 0 for every interior
// pixel of a cell produced by SliceCells. dx is right minus left and dy is
// top minus bottom, so angles grow counter-clockwise in image space.
func Gradients(cell imaging.PixelBuffer) GradientCell {
	n := cell.Width - 2*contextWidth
	m := cell.Height - 2*contextWidth
	g := GradientCell{
		Magnitude: make([]int, 0, n*m),
		Angle:     make([]int, 0, n*m),
	}

	for y := contextWidth; y < cell.Height-contextWidth; y++ {
		for x := contextWidth; x < cell.Width-contextWidth; x++ {
			dx := int(cell.At(x+1, y, 0)) - int(cell.At(x-1, y, 0))
			dy := int(cell.At(x, y-1, 0)) - int(cell.At(x, y+1, 0))

			mag := math.Round(math.Sqrt(float64(dx*dx + dy*dy)))
			g.Magnitude = append(g.Magnitude, int(mag))
			g.Angle = append(g.Angle, orientation(dx, dy))
		}
	}
	return g
}

// orientation folds atan2(dy, dx) into whole degrees in [0, MaxAngle).
// Opposite directions share an orientation.
func orientation(dx, dy int) int {
	rad := math.Atan2(float64(dy), float64(dx))
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return int(rad*MaxAngle/math.Pi) % MaxAngle
}

// Histogram accumulates the cell's magnitudes into Bins orientation bins of
// MaxAngle/Bins degrees. Each vote is split linearly between the bin below
// its position and the next bin, wrapping from the last bin to the first,
// so the histogram total equals the sum of magnitudes.
func (c Config) Histogram(g GradientCell) []float64 {
	hist := make([]float64, c.Bins)
	for i, mag := range g.Magnitude {
		pos := float64(g.Angle[i]*c.Bins) / MaxAngle
		lo := int(pos)
		if lo >= c.Bins {
			lo = c.Bins - 1
		}
		frac := pos - float64(lo)
		hi := (lo + 1) % c.Bins

		hist[lo] += (1 - frac) * float64(mag)
		hist[hi] += frac * float64(mag)
	}
	return hist
}
