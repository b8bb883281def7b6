// Package samples cuts training material out of images and turns it into
// HOG feature vectors.
package samples

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/hogscan/internal/detection"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
)

// Tiles cuts buf into non-overlapping width x height tiles, row by row. A
// tile is only cut when its origin lies strictly inside the last full
// window position, so the bottom and right margins may be skipped.
func Tiles(buf imaging.PixelBuffer, width, height int) ([]imaging.PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid tile size %dx%d", width, height)
	}
	var tiles []imaging.PixelBuffer
	for y := 0; y < buf.Height-height; y += height {
		for x := 0; x < buf.Width-width; x += width {
			tile, err := imaging.CropResize(buf, image.Rect(x, y, x+width, y+height), width, height)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, tile)
		}
	}
	return tiles, nil
}

// Crops cuts every annotated frame out of buf at its own size. With mirror
// set each crop is followed by its left-right reflection. Frames are
// clipped to the image; frames left empty by clipping are skipped.
func Crops(buf imaging.PixelBuffer, frames []detection.Rect, mirror bool) ([]imaging.PixelBuffer, error) {
	out := make([]imaging.PixelBuffer, 0, len(frames))
	bounds := detection.RectFromImage(buf.Bounds())
	for _, f := range frames {
		if f.Empty() || !f.Overlaps(bounds) {
			continue
		}
		r := f.Image().Intersect(buf.Bounds())
		crop, err := imaging.CropResize(buf, r, r.Dx(), r.Dy())
		if err != nil {
			return nil, fmt.Errorf("failed to crop %v: %w", f, err)
		}
		out = append(out, crop)
		if mirror {
			out = append(out, imaging.MirrorHorizontal(crop))
		}
	}
	return out, nil
}

// DescribeOptions configures Describe.
type DescribeOptions struct {
	// Weights are the grayscale coefficients applied before resizing.
	Weights [4]float64
	// Workers bounds the number of samples described at once. Zero means
	// one per CPU.
	Workers int
	// Progress, when set, is called after each sample with the number
	// finished so far. It may be called from several goroutines.
	Progress func(done, total int)
}

// Describe converts each sample to grayscale, resizes it to the
// extractor's window and extracts its descriptor. Vectors are returned in
// the order of bufs.
func Describe(ctx context.Context, extractor *hog.Extractor, bufs []imaging.PixelBuffer, opts DescribeOptions) ([][]float64, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	winW, winH := extractor.WindowSize()

	vectors := make([][]float64, len(bufs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, buf := range bufs {
		i, buf := i, buf
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gray := imaging.Grayscale(buf, opts.Weights)
			window, err := imaging.CropResize(gray, gray.Bounds(), winW, winH)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			v, err := extractor.Extract(window)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			vectors[i] = v
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(bufs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
