package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/hogscan/internal/hog"
	"github.com/ironsheep/hogscan/internal/scan"
)

// createTestImageFile writes a flat gray PNG. With patch set it carries a
// checkerboard covering x 100..164, y 128..256.
func createTestImageFile(t *testing.T, width, height int, patch bool) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(100)
			if patch && x >= 100 && x < 164 && y >= 128 && y < 256 && (x/4+y/4)%2 == 0 {
				v = 220
			}
			img.Set(x, y, color.NRGBA{v, v, v, 255})
		}
	}

	path := filepath.Join(t.TempDir(), "scene.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

var textureScorer = scan.ScorerFunc(func(f []float64) (float64, error) {
	for _, v := range f {
		if v > 0 {
			return 0.95, nil
		}
	}
	return 0, nil
})

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatal(err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult unpacks the JSON text content of a successful tool call.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
}

func wantErrorCode(t *testing.T, resp *MCPResponse, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error %d, got result %v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("Code: got %d (%v), want %d", resp.Error.Code, resp.Error.Data, code)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 100, 80, false)

	var info struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		Geometry struct {
			Stride int `json:"stride"`
		} `json:"geometry"`
	}
	decodeResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("info = %+v", info)
	}
	if info.Geometry.Stride != 400 {
		t.Errorf("stride = %d, want 400", info.Geometry.Stride)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 200, 150, false)

	var dims struct{ Width, Height int }
	decodeResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions = %+v", dims)
	}

	wantErrorCode(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": "/nonexistent.png"}), -32000)
}

func TestHandleToolsCall_InvalidArguments(t *testing.T) {
	s := New()
	params := json.RawMessage(`{"name":"image_load","arguments":{"path":42}}`)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	wantErrorCode(t, resp, -32602)

	resp = s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[]`)})
	wantErrorCode(t, resp, -32602)
}

func TestHandleToolsCall_ImagePreprocess(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 60, 40, true)

	var res PreprocessResult
	decodeResult(t, callTool(t, s, "image_preprocess", map[string]interface{}{"path": path}), &res)
	if res.Width != 60 || res.Height != 40 || res.MimeType != "image/png" || res.ImageBase64 == "" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Filters) != 1 || res.Filters[0] != "sobel" {
		t.Errorf("filters = %v, want [sobel]", res.Filters)
	}

	decodeResult(t, callTool(t, s, "image_preprocess", map[string]interface{}{
		"path":          path,
		"filters":       []string{"gaussian", "laplacian"},
		"black_percent": 1,
	}), &res)
	if strings.Join(res.Filters, ",") != "gaussian,laplacian" {
		t.Errorf("filters = %v", res.Filters)
	}

	wantErrorCode(t, callTool(t, s, "image_preprocess", map[string]interface{}{
		"path":    path,
		"filters": []string{"emboss"},
	}), -32602)
}

func TestHandleToolsCall_ImageHOGDescribe(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 300, 400, true)
	wantLen := hog.DefaultConfig().FeatureLength()

	var res DescribeResult
	decodeResult(t, callTool(t, s, "image_hog_describe", map[string]interface{}{"path": path}), &res)
	if res.Length != wantLen || res.Features != nil {
		t.Errorf("length %d features %d, want %d and none", res.Length, len(res.Features), wantLen)
	}
	if res.Region.Width != 300 || res.Region.Height != 400 {
		t.Errorf("region = %+v", res.Region)
	}
	if res.Max <= 0 || res.Min < 0 {
		t.Errorf("textured image gave min %v max %v", res.Min, res.Max)
	}

	decodeResult(t, callTool(t, s, "image_hog_describe", map[string]interface{}{
		"path": path, "x": 0, "y": 0, "width": 64, "height": 128, "include_features": true,
	}), &res)
	if len(res.Features) != wantLen || res.Max != 0 {
		t.Errorf("flat region: %d features, max %v", len(res.Features), res.Max)
	}

	wantErrorCode(t, callTool(t, s, "image_hog_describe", map[string]interface{}{
		"path": path, "x": 250, "y": 0, "width": 64, "height": 128,
	}), -32602)
}

func TestHandleToolsCall_ImageDetectPeople(t *testing.T) {
	s := New(WithScorer(textureScorer))
	path := createTestImageFile(t, 300, 400, true)

	var res DetectResult
	decodeResult(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path}), &res)
	if res.Width != 300 || res.Height != 400 {
		t.Errorf("size = %dx%d", res.Width, res.Height)
	}
	if res.Candidates != 9 || res.Count == 0 || res.Count != len(res.Detections) {
		t.Errorf("candidates %d count %d detections %d", res.Candidates, res.Count, len(res.Detections))
	}
	for i, d := range res.Detections {
		if d.Score != 0.95 {
			t.Errorf("detection %d score %v", i, d.Score)
		}
	}

	decodeResult(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path, "threshold": 0.99}), &res)
	if res.Count != 0 || res.Detections == nil {
		t.Errorf("threshold 0.99 gave %d detections (%v)", res.Count, res.Detections)
	}

	wantErrorCode(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path, "step": 0}), -32602)
}

func TestHandleToolsCall_ImageDetectPeople_Model(t *testing.T) {
	path := createTestImageFile(t, 300, 400, true)

	wantErrorCode(t, callTool(t, New(), "image_detect_people", map[string]interface{}{"path": path}), -32602)

	// an all-zero linear model scores every window 0.5
	n := hog.DefaultConfig().FeatureLength()
	weights := strings.TrimSuffix(strings.Repeat("0,", n), ",")
	model := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(model, []byte(fmt.Sprintf(`{"kernel":"linear","weights":[%s]}`, weights)), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New()
	var res DetectResult
	decodeResult(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path, "model": model}), &res)
	if res.Candidates != 0 {
		t.Errorf("candidates = %d, want 0 at the default threshold", res.Candidates)
	}

	decodeResult(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path, "model": model, "threshold": 0.5}), &res)
	if res.Candidates == 0 || res.Count == 0 {
		t.Errorf("threshold 0.5 gave %d candidates", res.Candidates)
	}
	if len(s.models) != 1 {
		t.Errorf("model cache holds %d entries, want 1", len(s.models))
	}

	wantErrorCode(t, callTool(t, s, "image_detect_people", map[string]interface{}{"path": path, "model": "/missing.json"}), -32000)
}

func TestHandleToolsCall_ImageDrawDetections(t *testing.T) {
	s := New(WithScorer(textureScorer))
	path := createTestImageFile(t, 300, 400, true)

	var res struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		Boxes       int    `json:"boxes"`
	}
	decodeResult(t, callTool(t, s, "image_draw_detections", map[string]interface{}{
		"path": path,
		"boxes": []map[string]interface{}{
			{"x": 10, "y": 10, "width": 64, "height": 128, "label": "0.90"},
			{"x": 100, "y": 50, "width": 64, "height": 128},
		},
		"color": "#FF0000",
	}), &res)
	if res.Boxes != 2 || res.Width != 300 || res.Height != 400 || res.ImageBase64 == "" {
		t.Errorf("result = %+v", res)
	}

	decodeResult(t, callTool(t, s, "image_draw_detections", map[string]interface{}{"path": path}), &res)
	if res.Boxes == 0 {
		t.Error("detected boxes were not drawn")
	}

	wantErrorCode(t, callTool(t, s, "image_draw_detections", map[string]interface{}{
		"path":  path,
		"boxes": []map[string]interface{}{{"x": 0, "y": 0, "width": 5, "height": 5}},
		"color": "not-a-color",
	}), -32602)
}
