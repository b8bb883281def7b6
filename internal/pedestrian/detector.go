// Package pedestrian wires the filter engine, HOG extractor, window scanner
// and clustering into a person detector.
package pedestrian

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/hogscan/internal/cluster"
	"github.com/ironsheep/hogscan/internal/detection"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
	"github.com/ironsheep/hogscan/internal/scan"
)

// DefaultTolerance is the cluster distance threshold in pixels.
const DefaultTolerance = 64

// Options configures a Detector.
type Options struct {
	Scan       scan.Options
	Preprocess imaging.PreprocessOptions
	// Tolerance is the distance within which candidates share a cluster.
	// It is also the centre distance Evaluate accepts as a match.
	Tolerance     float64
	MaxIterations int
}

// DefaultOptions returns the stock scan, Sobel preprocessing and a 64px
// cluster tolerance.
func DefaultOptions() Options {
	return Options{
		Scan:          scan.DefaultOptions(),
		Preprocess:    imaging.DefaultPreprocessOptions(),
		Tolerance:     DefaultTolerance,
		MaxIterations: cluster.DefaultMaxIterations,
	}
}

// Result is the outcome of one Detect call.
type Result struct {
	Detections []detection.Detection `json:"detections"`
	// Candidates is the number of windows that passed the threshold
	// before clustering.
	Candidates int `json:"candidates"`
	// Search is the size of the region the window pyramid was bounded by.
	Search image.Point `json:"search"`
}

// Detector finds people in images. It is safe for concurrent use as long
// as its scorer is.
type Detector struct {
	scanner *scan.Scanner
	opts    Options
	log     zerolog.Logger
}

// Option customises a Detector.
type Option func(*detectorConfig)

type detectorConfig struct {
	log      zerolog.Logger
	progress scan.ProgressFunc
}

// WithLogger sets the logger used by the detector and its scanner.
func WithLogger(l zerolog.Logger) Option {
	return func(c *detectorConfig) { c.log = l }
}

// WithProgress reports scan progress.
func WithProgress(fn scan.ProgressFunc) Option {
	return func(c *detectorConfig) { c.progress = fn }
}

// New builds a detector around an extractor and a scorer.
func New(extractor *hog.Extractor, scorer scan.Scorer, opts Options, options ...Option) (*Detector, error) {
	cfg := detectorConfig{log: zerolog.Nop()}
	for _, o := range options {
		o(&cfg)
	}
	if !(opts.Tolerance > 0) {
		return nil, fmt.Errorf("cluster tolerance %v must be positive", opts.Tolerance)
	}

	scanOpts := []scan.Option{scan.WithLogger(cfg.log)}
	if cfg.progress != nil {
		scanOpts = append(scanOpts, scan.WithProgress(cfg.progress))
	}
	scanner, err := scan.New(extractor, scorer, opts.Scan, scanOpts...)
	if err != nil {
		return nil, err
	}
	return &Detector{scanner: scanner, opts: opts, log: cfg.log}, nil
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options { return d.opts }

// Detect runs the full pipeline on src. The preprocessed image bounds the
// window pyramid; windows are cut from the grayscale source. Candidates
// are sorted by score before clustering so the strongest one seeds the
// first cluster. No candidates means no detections.
func (d *Detector) Detect(ctx context.Context, src imaging.PixelBuffer) (Result, error) {
	start := time.Now()

	pre, err := imaging.Preprocess(src, d.opts.Preprocess)
	if err != nil {
		return Result{}, fmt.Errorf("failed to preprocess image: %w", err)
	}
	search := image.Pt(pre.Width, pre.Height)

	gray := imaging.Grayscale(src, d.opts.Preprocess.Weights)
	cands, err := d.scanner.Scan(ctx, gray, search)
	if err != nil {
		return Result{}, err
	}

	res := Result{Candidates: len(cands), Search: search}
	if len(cands) == 0 {
		d.log.Debug().Dur("elapsed", time.Since(start)).Msg("no candidates")
		return res, nil
	}

	detection.SortByScore(cands)
	res.Detections, err = cluster.Detections(cands, d.opts.Tolerance, d.opts.MaxIterations)
	if err != nil && !errors.Is(err, cluster.ErrNoCandidates) {
		return Result{}, fmt.Errorf("failed to cluster candidates: %w", err)
	}

	d.log.Debug().
		Int("candidates", len(cands)).
		Int("detections", len(res.Detections)).
		Dur("elapsed", time.Since(start)).
		Msg("detection complete")
	return res, nil
}

// Evaluate runs Detect on every image and compares the frames found with
// the annotated truth, using the cluster tolerance as the match distance.
func (d *Detector) Evaluate(ctx context.Context, images []imaging.PixelBuffer, truth [][]detection.Rect) (detection.Evaluation, error) {
	if len(images) != len(truth) {
		return detection.Evaluation{}, fmt.Errorf("annotation count %d does not match image count %d", len(truth), len(images))
	}

	found := make([][]detection.Rect, len(images))
	for i, img := range images {
		res, err := d.Detect(ctx, img)
		if err != nil {
			return detection.Evaluation{}, fmt.Errorf("image %d: %w", i, err)
		}
		found[i] = detection.Frames(res.Detections)
	}

	ev, err := detection.Compare(truth, found, d.opts.Tolerance)
	if err != nil {
		return ev, err
	}
	d.log.Info().
		Int("truth", ev.Truth).
		Int("matched", ev.Matched).
		Int("false_positives", ev.FalsePositives).
		Float64("rate", ev.Rate()).
		Msg("evaluation complete")
	return ev, nil
}
