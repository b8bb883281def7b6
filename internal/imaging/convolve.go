package imaging

import (
	"errors"
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

var (
	// ErrKernelShape is returned for kernels that are not an odd square.
	ErrKernelShape = errors.New("kernel is not an odd square matrix")
	// ErrKernelRadius is returned when a kernel radius differs from the
	// border thickness of the buffer it is applied to.
	ErrKernelRadius = errors.New("kernel radius does not match border thickness")
	// ErrKernelMismatch is returned when the two kernels of a dual
	// convolution differ in size.
	ErrKernelMismatch = errors.New("dual kernels differ in size")
)

// Kernel is a square integer convolution matrix stored row by row.
type Kernel struct {
	Size         int
	Coefficients []int
}

// NewKernel builds a kernel from row-major coefficients. The coefficient
// count must be the square of an odd number.
func NewKernel(coefficients ...int) (Kernel, error) {
	side := int(math.Round(math.Sqrt(float64(len(coefficients)))))
	if side*side != len(coefficients) || side%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: %d coefficients", ErrKernelShape, len(coefficients))
	}
	c := make([]int, len(coefficients))
	copy(c, coefficients)
	return Kernel{Size: side, Coefficients: c}, nil
}

func mustKernel(coefficients ...int) Kernel {
	k, err := NewKernel(coefficients...)
	if err != nil {
		panic(err)
	}
	return k
}

// Radius is the number of neighbours on each side of the centre.
func (k Kernel) Radius() int {
	return (k.Size - 1) / 2
}

// Sum adds up all coefficients.
func (k Kernel) Sum() int {
	s := 0
	for _, c := range k.Coefficients {
		s += c
	}
	return s
}

// Divisor is the normalisation applied to the weighted sum, never below 1.
func (k Kernel) Divisor() int {
	if s := k.Sum(); s > 1 {
		return s
	}
	return 1
}

// Kernels used by the preprocessing filters.
var (
	LaplacianKernel  = mustKernel(-1, 0, -1, 0, 4, 0, -1, 0, -1)
	EdgeKernel       = mustKernel(1, 1, 1, 0, 0, 0, -1, -1, -1)
	SharpeningKernel = mustKernel(0, -2, 0, -2, 11, -2, 0, -2, 0)
	GaussianKernel   = mustKernel(1, 2, 1, 2, 4, 2, 1, 2, 1)
	SobelYKernel     = mustKernel(-1, -2, -1, 0, 0, 0, 1, 2, 1)
	SobelXKernel     = mustKernel(-1, 0, 1, -2, 0, 2, -1, 0, 1)
)

func (k Kernel) validate(b BorderedBuffer) error {
	if k.Size%2 == 0 || k.Size*k.Size != len(k.Coefficients) {
		return fmt.Errorf("%w: size %d with %d coefficients", ErrKernelShape, k.Size, len(k.Coefficients))
	}
	if k.Radius() != b.Thickness {
		return fmt.Errorf("%w: radius %d, border %d", ErrKernelRadius, k.Radius(), b.Thickness)
	}
	return nil
}

// weightedSum applies k to channel ch around the byte offset centre.
func (k Kernel) weightedSum(b BorderedBuffer, centre, ch int) int {
	r := k.Radius()
	sum, idx := 0, 0
	for fy := -r; fy <= r; fy++ {
		rowOff := centre + fy*b.Stride
		for fx := -r; fx <= r; fx++ {
			sum += int(b.Pix[rowOff+fx*b.BytesPerPixel+ch]) * k.Coefficients[idx]
			idx++
		}
	}
	return sum
}

// Convolve applies k to every interior pixel of b and returns the unbordered
// result. Each color channel becomes sum/divisor + offset clamped to a byte;
// alpha is copied from the centre pixel.
func Convolve(b BorderedBuffer, offset int, k Kernel) (PixelBuffer, error) {
	if err := k.validate(b); err != nil {
		return PixelBuffer{}, err
	}
	div := float64(k.Divisor())
	return convolveWith(b, func(centre, ch int) uint8 {
		return clampByte(float64(k.weightedSum(b, centre, ch))/div + float64(offset))
	}), nil
}

// ConvolveDual applies two directional kernels independently, each with its
// own divisor and the shared offset, and combines the responses as the
// gradient magnitude sqrt(Rx² + Ry²).
func ConvolveDual(b BorderedBuffer, offset int, kx, ky Kernel) (PixelBuffer, error) {
	if kx.Size != ky.Size || len(kx.Coefficients) != len(ky.Coefficients) {
		return PixelBuffer{}, fmt.Errorf("%w: %d and %d", ErrKernelMismatch, kx.Size, ky.Size)
	}
	if err := kx.validate(b); err != nil {
		return PixelBuffer{}, err
	}
	divX, divY := float64(kx.Divisor()), float64(ky.Divisor())
	return convolveWith(b, func(centre, ch int) uint8 {
		rx := float64(kx.weightedSum(b, centre, ch))/divX + float64(offset)
		ry := float64(ky.weightedSum(b, centre, ch))/divY + float64(offset)
		return clampByte(math.Sqrt(rx*rx + ry*ry))
	}), nil
}

func convolveWith(b BorderedBuffer, value func(centre, ch int) uint8) PixelBuffer {
	out := blank(b.Source)
	colors := b.Format.ColorChannels()
	t := b.Thickness

	parallel.Line(b.Source.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < b.Source.Width; x++ {
				centre := b.Offset(x+t, y+t)
				di := out.Offset(x, y)
				for ch := 0; ch < colors; ch++ {
					out.Pix[di+ch] = value(centre, ch)
				}
				if b.Format.HasAlpha() {
					out.Pix[di+colors] = b.Pix[centre+colors]
				}
			}
		}
	})
	return out
}
