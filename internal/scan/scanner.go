package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/hogscan/internal/detection"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
)

// ProgressFunc receives the number of windows scored so far and the total
// for the scan. It is called from several goroutines at once.
type ProgressFunc func(done, total int)

// Scanner slides detection windows over an image at several scales and
// scores each one.
type Scanner struct {
	extractor *hog.Extractor
	scorer    Scorer
	opts      Options
	log       zerolog.Logger
	progress  ProgressFunc
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for per-pass diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) { s.progress = fn }
}

// New validates opts and builds a scanner.
func New(extractor *hog.Extractor, scorer Scorer, opts Options, options ...Option) (*Scanner, error) {
	if extractor == nil || scorer == nil {
		return nil, errors.New("scanner needs an extractor and a scorer")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Scanner{
		extractor: extractor,
		scorer:    scorer,
		opts:      opts,
		log:       zerolog.Nop(),
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Options returns the scanner's options.
func (s *Scanner) Options() Options { return s.opts }

// Sizes lists the window sizes Scan uses for a search region.
func (s *Scanner) Sizes(search image.Point) []image.Point {
	w, h := s.extractor.WindowSize()
	return Pyramid(search.X, search.Y, w, h, s.opts.Growth)
}

// Scan runs one pass per window size over src, all passes concurrently.
// The pyramid of sizes is bounded by search, normally the size of the
// preprocessed image. Results are concatenated in pass order after every
// pass has finished. If any pass fails the others are cancelled and only
// the error is returned.
func (s *Scanner) Scan(ctx context.Context, src imaging.PixelBuffer, search image.Point) ([]detection.Candidate, error) {
	sizes := s.Sizes(search)
	total := WindowCount(src.Width, src.Height, sizes, s.opts.Step)
	counter := &progressCounter{total: total, fn: s.progress}

	s.log.Debug().
		Int("passes", len(sizes)).
		Int("windows", total).
		Msg("scan started")

	results := make([][]detection.Candidate, len(sizes))
	g, gctx := errgroup.WithContext(ctx)
	for i, size := range sizes {
		i, size := i, size
		g.Go(func() error {
			cands, err := s.pass(gctx, src, size, counter)
			if err != nil {
				return err
			}
			results[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []detection.Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// Pass scans src with one window size. Rows advance by twice the step and
// columns by the step; a window is only visited when it fits strictly
// inside the image. Windows are cut from src, resampled to the extractor's
// window size, described and scored. ctx is checked before every row.
func (s *Scanner) Pass(ctx context.Context, src imaging.PixelBuffer, size image.Point) ([]detection.Candidate, error) {
	return s.pass(ctx, src, size, &progressCounter{
		total: passWindows(src.Width, src.Height, size, s.opts.Step),
		fn:    s.progress,
	})
}

func (s *Scanner) pass(ctx context.Context, src imaging.PixelBuffer, size image.Point, counter *progressCounter) ([]detection.Candidate, error) {
	start := time.Now()
	winW, winH := s.extractor.WindowSize()
	step := s.opts.Step

	var cands []detection.Candidate
	for y := 0; y < src.Height-size.Y; y += 2 * step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < src.Width-size.X; x += step {
			frame := image.Rect(x, y, x+size.X, y+size.Y)

			window, err := imaging.CropResize(src, frame, winW, winH)
			if err != nil {
				return nil, fmt.Errorf("failed to cut window %v: %w", frame, err)
			}
			features, err := s.extractor.Extract(window)
			if err != nil {
				return nil, fmt.Errorf("failed to describe window %v: %w", frame, err)
			}
			p, err := s.scorer.Probability(features)
			if err != nil {
				return nil, fmt.Errorf("failed to score window %v: %w", frame, err)
			}
			counter.add()

			if p >= s.opts.Threshold {
				n := len(cands)
				cands = append(cands, detection.Candidate{
					ID:    n,
					Frame: detection.RectFromImage(frame),
					Score: p,
					Label: fmt.Sprintf("%d_%d_%d", size.X, size.Y, n),
				})
			}
		}
	}

	s.log.Debug().
		Int("width", size.X).
		Int("height", size.Y).
		Int("candidates", len(cands)).
		Dur("elapsed", time.Since(start)).
		Msg("scale pass complete")
	return cands, nil
}

// progressCounter aggregates window counts across passes.
type progressCounter struct {
	done  atomic.Int64
	total int
	fn    ProgressFunc
}

func (c *progressCounter) add() {
	n := c.done.Add(1)
	if c.fn != nil {
		c.fn(int(n), c.total)
	}
}
