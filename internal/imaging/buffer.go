package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultDPI is reported for buffers decoded from formats that carry no
// resolution metadata.
const DefaultDPI = 96.0

// ErrInvalidGeometry is returned when a buffer description is inconsistent.
var ErrInvalidGeometry = errors.New("invalid buffer geometry")

// PixelFormat describes the channel layout of a PixelBuffer.
type PixelFormat int

const (
	// FormatGray8 is a single 8-bit intensity channel.
	FormatGray8 PixelFormat = iota + 1
	// FormatRGB24 is three 8-bit color channels without alpha.
	FormatRGB24
	// FormatRGBA32 is three 8-bit color channels followed by 8-bit alpha.
	// Color is stored non-premultiplied.
	FormatRGBA32
)

// BytesPerPixel returns the storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatGray8:
		return 1
	case FormatRGB24:
		return 3
	case FormatRGBA32:
		return 4
	}
	return 0
}

// HasAlpha reports whether the last channel is alpha.
func (f PixelFormat) HasAlpha() bool {
	return f == FormatRGBA32
}

// ColorChannels returns the number of non-alpha channels.
func (f PixelFormat) ColorChannels() int {
	if f.HasAlpha() {
		return f.BytesPerPixel() - 1
	}
	return f.BytesPerPixel()
}

func (f PixelFormat) String() string {
	switch f {
	case FormatGray8:
		return "gray8"
	case FormatRGB24:
		return "rgb24"
	case FormatRGBA32:
		return "rgba32"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// Geometry is the immutable description of a raster buffer. It is created
// once per image and passed to every filter and extractor call.
type Geometry struct {
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	Stride        int         `json:"stride"`
	BytesPerPixel int         `json:"bytes_per_pixel"`
	DpiX          float64     `json:"dpi_x"`
	DpiY          float64     `json:"dpi_y"`
	Format        PixelFormat `json:"format"`
}

// NewGeometry returns a tightly packed geometry for the given size and format.
func NewGeometry(width, height int, format PixelFormat) Geometry {
	bpp := format.BytesPerPixel()
	return Geometry{
		Width:         width,
		Height:        height,
		Stride:        width * bpp,
		BytesPerPixel: bpp,
		DpiX:          DefaultDPI,
		DpiY:          DefaultDPI,
		Format:        format,
	}
}

// Validate checks the stride and pixel size invariants.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.BytesPerPixel != g.Format.BytesPerPixel() || g.BytesPerPixel == 0 {
		return fmt.Errorf("%w: %d bytes per pixel for format %s", ErrInvalidGeometry, g.BytesPerPixel, g.Format)
	}
	if g.Stride < g.Width*g.BytesPerPixel {
		return fmt.Errorf("%w: stride %d smaller than row of %d bytes",
			ErrInvalidGeometry, g.Stride, g.Width*g.BytesPerPixel)
	}
	return nil
}

// Len is the number of bytes a buffer with this geometry holds.
func (g Geometry) Len() int {
	return g.Stride * g.Height
}

// Framed returns the geometry of the same image surrounded by a border of
// the given thickness on every side.
func (g Geometry) Framed(thickness int) Geometry {
	f := g
	f.Width = g.Width + 2*thickness
	f.Height = g.Height + 2*thickness
	f.Stride = g.Stride + 2*thickness*g.BytesPerPixel
	return f
}

// Bounds returns the pixel rectangle covered by the geometry.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// PixelBuffer is a raw byte raster with its geometry. Filters treat it as
// immutable and always produce a new buffer.
type PixelBuffer struct {
	Geometry
	Pix []byte
}

// NewPixelBuffer wraps pix, validating that its length matches the geometry.
func NewPixelBuffer(g Geometry, pix []byte) (PixelBuffer, error) {
	if err := g.Validate(); err != nil {
		return PixelBuffer{}, err
	}
	if len(pix) != g.Len() {
		return PixelBuffer{}, fmt.Errorf("%w: buffer holds %d bytes, geometry needs %d",
			ErrInvalidGeometry, len(pix), g.Len())
	}
	return PixelBuffer{Geometry: g, Pix: pix}, nil
}

// blank allocates a zeroed buffer with geometry g.
func blank(g Geometry) PixelBuffer {
	return PixelBuffer{Geometry: g, Pix: make([]byte, g.Len())}
}

// Clone returns a deep copy.
func (b PixelBuffer) Clone() PixelBuffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return PixelBuffer{Geometry: b.Geometry, Pix: pix}
}

// Offset returns the index of the first byte of pixel (x, y).
func (b PixelBuffer) Offset(x, y int) int {
	return y*b.Stride + x*b.BytesPerPixel
}

// At returns channel ch of pixel (x, y).
func (b PixelBuffer) At(x, y, ch int) uint8 {
	return b.Pix[b.Offset(x, y)+ch]
}

// Equal reports whether both buffers describe the same pixels with the same
// geometry. Padding bytes beyond each row are ignored.
func (b PixelBuffer) Equal(o PixelBuffer) bool {
	if b.Width != o.Width || b.Height != o.Height || b.Format != o.Format {
		return false
	}
	row := b.Width * b.BytesPerPixel
	for y := 0; y < b.Height; y++ {
		bi, oi := y*b.Stride, y*o.Stride
		if string(b.Pix[bi:bi+row]) != string(o.Pix[oi:oi+row]) {
			return false
		}
	}
	return true
}

// Image returns a view of the buffer as a standard library image sharing the
// same pixel memory. RGB24 buffers have no matching image type and are
// converted to a new NRGBA image instead.
func (b PixelBuffer) Image() image.Image {
	switch b.Format {
	case FormatGray8:
		return &image.Gray{Pix: b.Pix, Stride: b.Stride, Rect: b.Bounds()}
	case FormatRGBA32:
		return &image.NRGBA{Pix: b.Pix, Stride: b.Stride, Rect: b.Bounds()}
	}
	dst := image.NewNRGBA(b.Bounds())
	for y := 0; y < b.Height; y++ {
		si := y * b.Stride
		di := y * dst.Stride
		for x := 0; x < b.Width; x++ {
			dst.Pix[di] = b.Pix[si]
			dst.Pix[di+1] = b.Pix[si+1]
			dst.Pix[di+2] = b.Pix[si+2]
			dst.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return dst
}

// FromImage converts any decoded image into an RGBA32 buffer with its
// origin at (0, 0).
func FromImage(img image.Image) PixelBuffer {
	nrgba := imaging.Clone(img)
	g := NewGeometry(nrgba.Rect.Dx(), nrgba.Rect.Dy(), FormatRGBA32)
	g.Stride = nrgba.Stride
	return PixelBuffer{Geometry: g, Pix: nrgba.Pix}
}
