package hog

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid hog configuration")
	// ErrWindowSize is returned when a window does not match the configured
	// window dimensions.
	ErrWindowSize = errors.New("window size does not match configuration")
)

// Default descriptor layout.
const (
	DefaultWindowWidth   = 64
	DefaultWindowHeight  = 128
	DefaultCellSize      = 8
	DefaultBins          = 9
	DefaultCellsPerBlock = 4
	DefaultEpsilon       = 0.01
)

// Config describes the descriptor layout.
type Config struct {
	WindowWidth  int `json:"window_width" toml:"window_width"`
	WindowHeight int `json:"window_height" toml:"window_height"`
	CellSize     int `json:"cell_size" toml:"cell_size"`
	Bins         int `json:"bins" toml:"bins"`
	// CellsPerBlock must be a perfect square; blocks are sqrt(CellsPerBlock)
	// cells on a side.
	CellsPerBlock int     `json:"cells_per_block" toml:"cells_per_block"`
	Epsilon       float64 `json:"epsilon" toml:"epsilon"`
}

// DefaultConfig returns the classic 64x128 pedestrian layout.
func DefaultConfig() Config {
	return Config{
		WindowWidth:   DefaultWindowWidth,
		WindowHeight:  DefaultWindowHeight,
		CellSize:      DefaultCellSize,
		Bins:          DefaultBins,
		CellsPerBlock: DefaultCellsPerBlock,
		Epsilon:       DefaultEpsilon,
	}
}

// Validate checks that the window divides into whole cells and whole blocks
// fit inside it.
func (c Config) Validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell size %d", ErrInvalidConfig, c.CellSize)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 ||
		c.WindowWidth%c.CellSize != 0 || c.WindowHeight%c.CellSize != 0 {
		return fmt.Errorf("%w: window %dx%d is not a multiple of cell size %d",
			ErrInvalidConfig, c.WindowWidth, c.WindowHeight, c.CellSize)
	}
	if c.Bins <= 0 {
		return fmt.Errorf("%w: %d bins", ErrInvalidConfig, c.Bins)
	}
	if c.CellsPerBlock <= 0 {
		return fmt.Errorf("%w: %d cells per block", ErrInvalidConfig, c.CellsPerBlock)
	}
	side := c.BlockSide()
	if side*side != c.CellsPerBlock {
		return fmt.Errorf("%w: %d cells per block is not a perfect square", ErrInvalidConfig, c.CellsPerBlock)
	}
	if side > c.CellsX() || side > c.CellsY() {
		return fmt.Errorf("%w: %dx%d block larger than %dx%d cell grid",
			ErrInvalidConfig, side, side, c.CellsX(), c.CellsY())
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive", ErrInvalidConfig)
	}
	return nil
}

// CellsX is the number of cell columns in a window.
func (c Config) CellsX() int { return c.WindowWidth / c.CellSize }

// CellsY is the number of cell rows in a window.
func (c Config) CellsY() int { return c.WindowHeight / c.CellSize }

// BlockSide is the block edge length in cells.
func (c Config) BlockSide() int {
	return int(math.Round(math.Sqrt(float64(c.CellsPerBlock))))
}

// BlocksX counts horizontal block positions with a stride of one cell.
func (c Config) BlocksX() int { return c.CellsX() - c.BlockSide() + 1 }

// BlocksY counts vertical block positions with a stride of one cell.
func (c Config) BlocksY() int { return c.CellsY() - c.BlockSide() + 1 }

// FeatureLength is the number of components in one descriptor.
func (c Config) FeatureLength() int {
	return c.BlocksX() * c.BlocksY() * c.CellsPerBlock * c.Bins
}
