package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/hogscan/internal/detection"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
	"github.com/ironsheep/hogscan/internal/logging"
	"github.com/ironsheep/hogscan/internal/pedestrian"
	"github.com/ironsheep/hogscan/internal/samples"
	"github.com/ironsheep/hogscan/internal/svm"
)

// flagSet returns a flag set with every configuration flag bound.
func (e *env) flagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	e.cfg.BindFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: hogscan %s [flags] %s\n\nFlags:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args, validates the result and applies the log level.
func (e *env) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(e.cfg.LogLevel)
	if err != nil {
		return err
	}
	e.log = e.log.Level(level)
	return nil
}

func (e *env) detector() (*pedestrian.Detector, error) {
	if e.cfg.ModelPath == "" {
		return nil, errors.New("no classifier configured: use -model or HOGSCAN_MODEL")
	}
	model, err := svm.Load(e.cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	ex, err := hog.NewExtractor(e.cfg.HOG)
	if err != nil {
		return nil, err
	}
	if model.Dim() != ex.FeatureLength() {
		return nil, fmt.Errorf("model expects %d features, descriptor has %d", model.Dim(), ex.FeatureLength())
	}
	opts, err := e.cfg.DetectorOptions()
	if err != nil {
		return nil, err
	}
	return pedestrian.New(ex, model, opts, pedestrian.WithLogger(logging.Component(e.log, "detector")))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputName(dir, src, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(dir, base+suffix+".png")
}

type detectOutput struct {
	Path string `json:"path"`
	pedestrian.Result
}

func runDetect(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("detect", "IMAGE...")
	annotate := fs.String("annotate", "", "directory for copies of the images with detections drawn")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no images given")
	}

	det, err := e.detector()
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()

	for _, path := range fs.Args() {
		buf, err := cache.LoadBuffer(path)
		if err != nil {
			return err
		}
		res, err := det.Detect(ctx, buf)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := printJSON(detectOutput{Path: path, Result: res}); err != nil {
			return err
		}

		if *annotate != "" {
			boxes := make([]imaging.Box, len(res.Detections))
			for i, d := range res.Detections {
				boxes[i] = imaging.Box{Rect: d.Frame.Image(), Label: fmt.Sprintf("%.2f", d.Score)}
			}
			img, _ := cache.Load(path)
			out, err := imaging.DrawDetections(img, boxes, 2, "")
			if err != nil {
				return err
			}
			if err := dimaging.Save(out, outputName(*annotate, path, "_detections")); err != nil {
				return fmt.Errorf("failed to save annotated image: %w", err)
			}
		}
	}
	return nil
}

// readTruth loads annotations from a JSON object mapping image paths to
// lists of {x, y, width, height} frames.
func readTruth(path string) (map[string][]detection.Rect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	var truth map[string][]detection.Rect
	if err := json.Unmarshal(data, &truth); err != nil {
		return nil, fmt.Errorf("failed to decode annotations: %w", err)
	}
	return truth, nil
}

func runEvaluate(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("evaluate", "-truth FILE IMAGE...")
	truthPath := fs.String("truth", "", "JSON annotations keyed by image path")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *truthPath == "" || fs.NArg() == 0 {
		fs.Usage()
		return errors.New("annotations and images are required")
	}

	truthByPath, err := readTruth(*truthPath)
	if err != nil {
		return err
	}
	det, err := e.detector()
	if err != nil {
		return err
	}

	cache := imaging.NewImageCache()
	images := make([]imaging.PixelBuffer, 0, fs.NArg())
	truth := make([][]detection.Rect, 0, fs.NArg())
	for _, path := range fs.Args() {
		buf, err := cache.LoadBuffer(path)
		if err != nil {
			return err
		}
		images = append(images, buf)
		truth = append(truth, truthByPath[path])
		// decoded buffers are all that is needed from here on
		cache.Evict(path)
	}

	ev, err := det.Evaluate(ctx, images, truth)
	if err != nil {
		return err
	}
	return printJSON(struct {
		detection.Evaluation
		Rate float64 `json:"recognition_rate"`
	}{ev, ev.Rate()})
}

func runPreprocess(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("preprocess", "-o OUT IMAGE")
	out := fs.String("o", "", "output PNG path")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() != 1 {
		fs.Usage()
		return errors.New("one image and -o are required")
	}

	opts, err := e.cfg.PreprocessOptions()
	if err != nil {
		return err
	}
	buf, err := imaging.NewImageCache().LoadBuffer(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := imaging.Preprocess(buf, opts)
	if err != nil {
		return err
	}
	return dimaging.Save(result.Image(), *out)
}

type describeOutput struct {
	Path     string    `json:"path"`
	Features []float64 `json:"features"`
}

func runDescribe(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("describe", "IMAGE...")
	workers := fs.Int("workers", 0, "samples described at once (default one per CPU)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no images given")
	}

	ex, err := hog.NewExtractor(e.cfg.HOG)
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()
	bufs := make([]imaging.PixelBuffer, fs.NArg())
	for i, path := range fs.Args() {
		if bufs[i], err = cache.LoadBuffer(path); err != nil {
			return err
		}
	}

	vectors, err := samples.Describe(ctx, ex, bufs, samples.DescribeOptions{
		Weights: e.cfg.Preprocess.Weights,
		Workers: *workers,
		Progress: func(done, total int) {
			e.log.Debug().Int("done", done).Int("total", total).Msg("described")
		},
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for i, v := range vectors {
		if err := enc.Encode(describeOutput{Path: fs.Arg(i), Features: v}); err != nil {
			return err
		}
	}
	return nil
}

func saveSamples(dir, src string, bufs []imaging.PixelBuffer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, b := range bufs {
		if err := dimaging.Save(b.Image(), outputName(dir, src, fmt.Sprintf("_%03d", i))); err != nil {
			return fmt.Errorf("failed to save sample: %w", err)
		}
	}
	return nil
}

func runTiles(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("tiles", "-o DIR IMAGE...")
	out := fs.String("o", "", "output directory")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() == 0 {
		fs.Usage()
		return errors.New("images and -o are required")
	}

	cache := imaging.NewImageCache()
	for _, path := range fs.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := cache.LoadBuffer(path)
		if err != nil {
			return err
		}
		tiles, err := samples.Tiles(buf, e.cfg.HOG.WindowWidth, e.cfg.HOG.WindowHeight)
		if err != nil {
			return err
		}
		if err := saveSamples(*out, path, tiles); err != nil {
			return err
		}
		e.log.Info().Str("image", path).Int("tiles", len(tiles)).Msg("tiles written")
	}
	return nil
}

func runCrops(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("crops", "-truth FILE -o DIR IMAGE...")
	truthPath := fs.String("truth", "", "JSON annotations keyed by image path")
	out := fs.String("o", "", "output directory")
	mirror := fs.Bool("mirror", true, "also write the left-right mirror of every crop")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *truthPath == "" || *out == "" || fs.NArg() == 0 {
		fs.Usage()
		return errors.New("annotations, images and -o are required")
	}

	truth, err := readTruth(*truthPath)
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()
	for _, path := range fs.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := cache.LoadBuffer(path)
		if err != nil {
			return err
		}
		crops, err := samples.Crops(buf, truth[path], *mirror)
		if err != nil {
			return err
		}
		if err := saveSamples(*out, path, crops); err != nil {
			return err
		}
		e.log.Info().Str("image", path).Int("crops", len(crops)).Msg("crops written")
	}
	return nil
}
