package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/hogscan/internal/detection"
	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/imaging"
	"github.com/ironsheep/hogscan/internal/logging"
	"github.com/ironsheep/hogscan/internal/pedestrian"
	"github.com/ironsheep/hogscan/internal/scan"
	"github.com/ironsheep/hogscan/internal/svm"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_detect_people").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramError marks arguments that could not be decoded or are out of range.
type paramError struct{ err error }

func (e *paramError) Error() string { return e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramError{err}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602; any other tool failure returns -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		var pe *paramError
		if errors.As(err, &pe) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Filter Engine and Features
	case "image_preprocess":
		return s.handleImagePreprocess(args)
	case "image_hog_describe":
		return s.handleImageHOGDescribe(args)

	// Detection
	case "image_detect_people":
		return s.handleImageDetectPeople(ctx, args)
	case "image_draw_detections":
		return s.handleImageDrawDetections(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Filter Engine Handlers ===

type imagePreprocessArgs struct {
	Path         string   `json:"path"`
	Filters      []string `json:"filters"`
	BlackPercent *float64 `json:"black_percent"`
	WhitePercent *float64 `json:"white_percent"`
}

// PreprocessResult is the filtered image.
type PreprocessResult struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Filters     []string `json:"filters"`
	ImageBase64 string   `json:"image_base64"`
	MimeType    string   `json:"mime_type"`
}

func (s *Server) handleImagePreprocess(args json.RawMessage) (interface{}, error) {
	var a imagePreprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	cfg := *s.cfg
	if a.Filters != nil {
		cfg.Preprocess.Filters = a.Filters
	}
	if a.BlackPercent != nil {
		cfg.Preprocess.BlackPercent = *a.BlackPercent
	}
	if a.WhitePercent != nil {
		cfg.Preprocess.WhitePercent = *a.WhitePercent
	}
	opts, err := cfg.PreprocessOptions()
	if err != nil {
		return nil, &paramError{err}
	}

	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Preprocess(buf, opts)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNGBase64(out.Image())
	if err != nil {
		return nil, err
	}

	names := make([]string, len(opts.Filters))
	for i, f := range opts.Filters {
		names[i] = f.String()
	}
	return &PreprocessResult{
		Width:       out.Width,
		Height:      out.Height,
		Filters:     names,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// === HOG Feature Handlers ===

type imageRegionArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// rect returns the requested region, or bounds when none was given.
func (a imageRegionArgs) rect(bounds image.Rectangle) (image.Rectangle, error) {
	if a.Width == 0 && a.Height == 0 && a.X == 0 && a.Y == 0 {
		return bounds, nil
	}
	r := image.Rect(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
	if a.Width <= 0 || a.Height <= 0 || !r.In(bounds) {
		return image.Rectangle{}, &paramError{fmt.Errorf("region %v outside image bounds %v", r, bounds)}
	}
	return r, nil
}

type imageHOGDescribeArgs struct {
	imageRegionArgs
	IncludeFeatures bool `json:"include_features"`
}

// DescribeResult summarises a HOG descriptor.
type DescribeResult struct {
	Region       detection.Rect `json:"region"`
	WindowWidth  int            `json:"window_width"`
	WindowHeight int            `json:"window_height"`
	Length       int            `json:"length"`
	Min          float64        `json:"min"`
	Max          float64        `json:"max"`
	Mean         float64        `json:"mean"`
	Features     []float64      `json:"features,omitempty"`
}

func (s *Server) handleImageHOGDescribe(args json.RawMessage) (interface{}, error) {
	var a imageHOGDescribeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	ex, err := hog.NewExtractor(s.cfg.HOG)
	if err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	region, err := a.rect(buf.Bounds())
	if err != nil {
		return nil, err
	}

	w, h := ex.WindowSize()
	gray := imaging.Grayscale(buf, s.cfg.Preprocess.Weights)
	window, err := imaging.CropResize(gray, region, w, h)
	if err != nil {
		return nil, err
	}
	features, err := ex.Extract(window)
	if err != nil {
		return nil, err
	}

	res := &DescribeResult{
		Region:       detection.RectFromImage(region),
		WindowWidth:  w,
		WindowHeight: h,
		Length:       len(features),
		Min:          floats.Min(features),
		Max:          floats.Max(features),
		Mean:         stat.Mean(features, nil),
	}
	if a.IncludeFeatures {
		res.Features = features
	}
	return res, nil
}

// === Detection Handlers ===

type imageDetectArgs struct {
	Path      string   `json:"path"`
	Model     string   `json:"model"`
	Threshold *float64 `json:"threshold"`
	Step      *int     `json:"step"`
	Tolerance *float64 `json:"tolerance"`
}

// DetectResult lists the people found in an image.
type DetectResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Candidates int                   `json:"candidates"`
	Count      int                   `json:"count"`
	Detections []detection.Detection `json:"detections"`
}

func (s *Server) handleImageDetectPeople(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.detect(ctx, a)
}

func (s *Server) detect(ctx context.Context, a imageDetectArgs) (*DetectResult, error) {
	opts, err := s.cfg.DetectorOptions()
	if err != nil {
		return nil, err
	}
	if a.Threshold != nil {
		opts.Scan.Threshold = *a.Threshold
	}
	if a.Step != nil {
		opts.Scan.Step = *a.Step
	}
	if a.Tolerance != nil {
		opts.Tolerance = *a.Tolerance
	}

	scorer, err := s.scorerFor(a.Model)
	if err != nil {
		return nil, err
	}
	ex, err := hog.NewExtractor(s.cfg.HOG)
	if err != nil {
		return nil, err
	}
	det, err := pedestrian.New(ex, scorer, opts, pedestrian.WithLogger(logging.Component(s.log, "detector")))
	if err != nil {
		return nil, &paramError{err}
	}

	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := det.Detect(ctx, buf)
	if err != nil {
		return nil, err
	}

	dets := res.Detections
	if dets == nil {
		dets = []detection.Detection{}
	}
	return &DetectResult{
		Width:      buf.Width,
		Height:     buf.Height,
		Candidates: res.Candidates,
		Count:      len(dets),
		Detections: dets,
	}, nil
}

// scorerFor returns the fixed scorer, or the model at path (falling back
// to the configured model path). Loaded models are kept for reuse.
func (s *Server) scorerFor(path string) (scan.Scorer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scorer != nil {
		return s.scorer, nil
	}
	if path == "" {
		path = s.cfg.ModelPath
	}
	if path == "" {
		return nil, &paramError{errors.New("no classifier configured: pass model or set HOGSCAN_MODEL")}
	}
	if sc, ok := s.models[path]; ok {
		return sc, nil
	}
	m, err := svm.Load(path)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("path", path).Int("dim", m.Dim()).Msg("classifier loaded")
	s.models[path] = m
	return m, nil
}

type boxArgs struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

type imageDrawDetectionsArgs struct {
	Path      string    `json:"path"`
	Boxes     []boxArgs `json:"boxes"`
	Model     string    `json:"model"`
	Thickness int       `json:"thickness"`
	Color     string    `json:"color"`
}

func (s *Server) handleImageDrawDetections(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDrawDetectionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var boxes []imaging.Box
	if len(a.Boxes) > 0 {
		for _, b := range a.Boxes {
			boxes = append(boxes, imaging.Box{
				Rect:  image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height),
				Label: b.Label,
			})
		}
	} else {
		res, err := s.detect(ctx, imageDetectArgs{Path: a.Path, Model: a.Model})
		if err != nil {
			return nil, err
		}
		for _, d := range res.Detections {
			boxes = append(boxes, imaging.Box{
				Rect:  d.Frame.Image(),
				Label: fmt.Sprintf("%.2f", d.Score),
			})
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	result, err := imaging.DrawDetectionsPNG(img, boxes, a.Thickness, a.Color)
	if err != nil {
		return nil, &paramError{err}
	}
	return result, nil
}
