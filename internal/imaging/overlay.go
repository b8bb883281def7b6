package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Box is one rectangle to draw with an optional short label such as a score.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// OverlayResult contains the annotated image as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Boxes       int    `json:"boxes"`
}

// Palette returns n visually distinct colors with evenly spaced hues.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		hue := 360 * float64(i) / float64(n)
		colors[i] = colorful.Hcl(hue, 0.8, 0.65).Clamped()
	}
	return colors
}

// DrawDetections renders box outlines of the given thickness over img. When
// hexColor is empty every box gets its own palette color.
func DrawDetections(img image.Image, boxes []Box, thickness int, hexColor string) (*image.RGBA, error) {
	if thickness <= 0 {
		thickness = 2
	}
	var colors []color.Color
	if hexColor != "" {
		c, err := colorful.Hex(hexColor)
		if err != nil {
			return nil, fmt.Errorf("invalid box color %q: %w", hexColor, err)
		}
		colors = []color.Color{c}
	} else {
		colors = Palette(len(boxes))
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for i, b := range boxes {
		c := colors[i%len(colors)]
		r := b.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		for t := 0; t < thickness; t++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				setIn(result, x, r.Min.Y+t, c)
				setIn(result, x, r.Max.Y-1-t, c)
			}
			for y := r.Min.Y; y < r.Max.Y; y++ {
				setIn(result, r.Min.X+t, y, c)
				setIn(result, r.Max.X-1-t, y, c)
			}
		}
		if b.Label != "" {
			fg := color.RGBA{255, 255, 255, 255}
			bg := color.RGBAModel.Convert(c).(color.RGBA)
			drawLabel(result, r.Min.X+thickness+1, r.Min.Y+thickness+1, b.Label, fg, bg)
		}
	}
	return result, nil
}

// DrawDetectionsPNG is DrawDetections followed by base64 PNG encoding.
func DrawDetectionsPNG(img image.Image, boxes []Box, thickness int, hexColor string) (*OverlayResult, error) {
	result, err := DrawDetections(img, boxes, thickness, hexColor)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNGBase64(result)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		Width:       result.Rect.Dx(),
		Height:      result.Rect.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Boxes:       len(boxes),
	}, nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func setIn(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Rect) {
		img.Set(x, y, c)
	}
}

// drawLabel draws text with a tiny 3x5 pixel font. Only digits, '.', ','
// and '%' have glyphs.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'.': {"000", "000", "000", "000", "010"},
		'%': {"101", "001", "010", "100", "101"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setIn(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setIn(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
