package imaging

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned for a filter selector outside the known set.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter selects one preprocessing stage applied after contrast stretching.
type Filter int

const (
	FilterLaplacian Filter = iota + 1
	FilterEdge
	FilterSharpening
	FilterGaussian
	FilterSobel
	// FilterLinearContrast adds no kernel; the contrast stretch that always
	// runs first is the whole effect.
	FilterLinearContrast
)

// Offsets added after normalising a kernel response. Signed responses are
// shifted to mid-gray so both directions stay visible.
const (
	SignedOffset = 127
	ZeroOffset   = 0
)

// FrameThickness is the border width used by the preprocessing pipeline. It
// matches the radius of every built-in kernel.
const FrameThickness = 1

var filterNames = map[string]Filter{
	"laplacian":  FilterLaplacian,
	"edge":       FilterEdge,
	"sharpening": FilterSharpening,
	"gaussian":   FilterGaussian,
	"sobel":      FilterSobel,
	"linear":     FilterLinearContrast,
}

// ParseFilter maps a case-insensitive filter name to its selector.
func ParseFilter(name string) (Filter, error) {
	f, ok := filterNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

// ParseFilters parses a list of names, failing on the first unknown one.
func ParseFilters(names []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(names))
	for _, n := range names {
		f, err := ParseFilter(n)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (f Filter) String() string {
	for name, v := range filterNames {
		if v == f {
			return name
		}
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// PreprocessOptions configures Preprocess.
type PreprocessOptions struct {
	// Weights are the per-channel grayscale coefficients.
	Weights [4]float64
	// BlackFraction and WhiteFraction are the contrast stretch clip
	// fractions in [0, 1].
	BlackFraction float64
	WhiteFraction float64
	// Filters run in the given order after the border is added.
	Filters []Filter
}

// DefaultPreprocessOptions returns Rec. 709 grayscale, no clipping and a
// single Sobel stage.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Weights: DefaultGrayscaleWeights,
		Filters: []Filter{FilterSobel},
	}
}

// Preprocess runs the fixed pipeline: grayscale, contrast stretch, add
// border, each filter in order, strip border. The border is rebuilt from the
// previous stage's output before every kernel.
func Preprocess(buf PixelBuffer, opts PreprocessOptions) (PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return PixelBuffer{}, err
	}

	gray := Grayscale(buf, opts.Weights)
	stretched := ContrastStretch(gray, opts.BlackFraction, opts.WhiteFraction)

	framed, err := MakeBordered(stretched, FrameThickness)
	if err != nil {
		return PixelBuffer{}, err
	}

	for _, f := range opts.Filters {
		var out PixelBuffer
		switch f {
		case FilterLaplacian:
			out, err = Convolve(framed, SignedOffset, LaplacianKernel)
		case FilterEdge:
			out, err = Convolve(framed, SignedOffset, EdgeKernel)
		case FilterSharpening:
			out, err = Convolve(framed, ZeroOffset, SharpeningKernel)
		case FilterGaussian:
			out, err = Convolve(framed, ZeroOffset, GaussianKernel)
		case FilterSobel:
			out, err = ConvolveDual(framed, ZeroOffset, SobelYKernel, SobelXKernel)
		case FilterLinearContrast:
			continue
		default:
			return PixelBuffer{}, fmt.Errorf("%w: %d", ErrUnknownFilter, int(f))
		}
		if err != nil {
			return PixelBuffer{}, fmt.Errorf("apply %s filter: %w", f, err)
		}
		if framed, err = framed.Reframe(out); err != nil {
			return PixelBuffer{}, err
		}
	}

	return StripBorder(framed), nil
}
