package imaging

import "fmt"

// BorderedBuffer is a PixelBuffer surrounded by Thickness replicated edge
// pixels on every side, so that convolution kernels of matching radius have
// a full neighbourhood at the image edges.
type BorderedBuffer struct {
	PixelBuffer
	Thickness int
	Source    Geometry
}

// MakeBordered pads buf with thickness pixels of edge replication. Border
// rows copy the nearest interior row and border columns copy the nearest
// interior column, so corners repeat the corner pixel.
func MakeBordered(buf PixelBuffer, thickness int) (BorderedBuffer, error) {
	if thickness < 0 {
		return BorderedBuffer{}, fmt.Errorf("negative border thickness %d", thickness)
	}
	if err := buf.Validate(); err != nil {
		return BorderedBuffer{}, err
	}

	src := buf.Geometry
	framed := blank(src.Framed(thickness))
	bpp := src.BytesPerPixel
	row := src.Width * bpp
	side := thickness * bpp

	for y := 0; y < src.Height; y++ {
		si := y * src.Stride
		di := (y+thickness)*framed.Stride + side
		copy(framed.Pix[di:di+row], buf.Pix[si:si+row])

		// left and right columns of this row
		first := framed.Pix[di : di+bpp]
		last := framed.Pix[di+row-bpp : di+row]
		for t := 0; t < thickness; t++ {
			l := (y+thickness)*framed.Stride + t*bpp
			copy(framed.Pix[l:l+bpp], first)
			r := di + row + t*bpp
			copy(framed.Pix[r:r+bpp], last)
		}
	}

	full := framed.Width * bpp
	top := framed.Pix[thickness*framed.Stride : thickness*framed.Stride+full]
	bottomRow := (thickness + src.Height - 1) * framed.Stride
	bottom := framed.Pix[bottomRow : bottomRow+full]
	for t := 0; t < thickness; t++ {
		ti := t * framed.Stride
		copy(framed.Pix[ti:ti+full], top)
		bi := (thickness + src.Height + t) * framed.Stride
		copy(framed.Pix[bi:bi+full], bottom)
	}

	return BorderedBuffer{PixelBuffer: framed, Thickness: thickness, Source: src}, nil
}

// StripBorder returns the interior of b with the source geometry. It is the
// inverse of MakeBordered.
func StripBorder(b BorderedBuffer) PixelBuffer {
	out := blank(b.Source)
	row := b.Source.Width * b.BytesPerPixel
	side := b.Thickness * b.BytesPerPixel
	for y := 0; y < b.Source.Height; y++ {
		si := (y+b.Thickness)*b.Stride + side
		di := y * out.Stride
		copy(out.Pix[di:di+row], b.Pix[si:si+row])
	}
	return out
}

// Reframe replaces the interior of b with buf and rebuilds the replicated
// border around it. buf must have the geometry b was built from.
func (b BorderedBuffer) Reframe(buf PixelBuffer) (BorderedBuffer, error) {
	if buf.Width != b.Source.Width || buf.Height != b.Source.Height || buf.Format != b.Source.Format {
		return BorderedBuffer{}, fmt.Errorf("%w: reframe %dx%d into %dx%d border",
			ErrInvalidGeometry, buf.Width, buf.Height, b.Source.Width, b.Source.Height)
	}
	return MakeBordered(buf, b.Thickness)
}
