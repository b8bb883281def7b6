package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResize cuts rect out of buf and resamples it to width x height with a
// linear filter. The result keeps buf's pixel format.
func CropResize(buf PixelBuffer, rect image.Rectangle, width, height int) (PixelBuffer, error) {
	if rect.Empty() || !rect.In(buf.Bounds()) {
		return PixelBuffer{}, fmt.Errorf("window %v outside image bounds %v", rect, buf.Bounds())
	}
	if width <= 0 || height <= 0 {
		return PixelBuffer{}, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	cropped := imaging.Crop(buf.Image(), rect)
	if cropped.Rect.Dx() != width || cropped.Rect.Dy() != height {
		cropped = imaging.Resize(cropped, width, height, imaging.Linear)
	}
	return convertNRGBA(cropped, buf.Format), nil
}

// MirrorHorizontal flips buf left to right.
func MirrorHorizontal(buf PixelBuffer) PixelBuffer {
	return convertNRGBA(imaging.FlipH(buf.Image()), buf.Format)
}

// convertNRGBA stores img in the requested format. Gray8 keeps the red
// channel, which holds the intensity of any buffer produced by Grayscale.
func convertNRGBA(img *image.NRGBA, format PixelFormat) PixelBuffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	switch format {
	case FormatGray8, FormatRGB24:
		out := blank(NewGeometry(w, h, format))
		bpp := format.BytesPerPixel()
		for y := 0; y < h; y++ {
			si := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			di := y * out.Stride
			for x := 0; x < w; x++ {
				copy(out.Pix[di:di+bpp], img.Pix[si:si+bpp])
				si += 4
				di += bpp
			}
		}
		return out
	}
	return FromImage(img)
}
