package scan

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid scan options")

// Defaults for Options.
const (
	DefaultStep      = 64
	DefaultThreshold = 0.7
	DefaultGrowth    = 1.5
)

// Options controls the sliding window search.
type Options struct {
	// Step is the horizontal stride in pixels. Rows advance by twice Step.
	Step int `json:"step" toml:"step"`
	// Threshold is the minimum probability for a window to become a
	// candidate.
	Threshold float64 `json:"threshold" toml:"threshold"`
	// Growth scales the window between passes and must exceed 1.
	Growth float64 `json:"growth" toml:"growth"`
}

// DefaultOptions returns a 64px step, 0.7 threshold and 1.5 growth.
func DefaultOptions() Options {
	return Options{
		Step:      DefaultStep,
		Threshold: DefaultThreshold,
		Growth:    DefaultGrowth,
	}
}

// Validate rejects options that would stall or never emit candidates.
func (o Options) Validate() error {
	if o.Step <= 0 {
		return fmt.Errorf("%w: step %d", ErrInvalidOptions, o.Step)
	}
	if o.Threshold < 0 || o.Threshold > 1 || math.IsNaN(o.Threshold) {
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidOptions, o.Threshold)
	}
	if !(o.Growth > 1) {
		return fmt.Errorf("%w: growth %v must be greater than 1", ErrInvalidOptions, o.Growth)
	}
	return nil
}

// Pyramid lists the window sizes of every scale pass. It starts at the base
// window and multiplies both sides by growth, rounding to whole pixels, for
// as long as both sides stay strictly smaller than the search region.
func Pyramid(searchW, searchH, baseW, baseH int, growth float64) []image.Point {
	var sizes []image.Point
	if !(growth > 1) || baseW <= 0 || baseH <= 0 {
		return sizes
	}
	w, h := baseW, baseH
	for w < searchW && h < searchH {
		sizes = append(sizes, image.Pt(w, h))
		w = int(math.Round(float64(w) * growth))
		h = int(math.Round(float64(h) * growth))
	}
	return sizes
}

// passWindows counts the windows one pass of the given size visits over a
// width x height source.
func passWindows(width, height int, size image.Point, step int) int {
	return strides(height-size.Y, 2*step) * strides(width-size.X, step)
}

// strides counts positions 0, step, 2*step, ... strictly below limit.
func strides(limit, step int) int {
	if limit <= 0 {
		return 0
	}
	return (limit + step - 1) / step
}

// WindowCount is the number of windows all passes together visit.
func WindowCount(width, height int, sizes []image.Point, step int) int {
	if step <= 0 {
		return 0
	}
	total := 0
	for _, s := range sizes {
		total += passWindows(width, height, s, step)
	}
	return total
}
