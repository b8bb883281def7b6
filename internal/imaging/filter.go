package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// DefaultGrayscaleWeights are the Rec. 709 luma coefficients in RGBA storage
// order. Alpha carries no weight.
var DefaultGrayscaleWeights = [4]float64{0.2126, 0.7152, 0.0722, 0}

// clampByte truncates v into the byte range.
func clampByte(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return uint8(v)
}

// writeIntensity stores v into every color channel of the pixel at di and
// copies alpha from the source pixel at si.
func writeIntensity(dst, src PixelBuffer, di, si int, v uint8) {
	colors := dst.Format.ColorChannels()
	for k := 0; k < colors; k++ {
		dst.Pix[di+k] = v
	}
	if dst.Format.HasAlpha() {
		dst.Pix[di+colors] = src.Pix[si+colors]
	}
}

// Grayscale computes a weighted sum of each pixel's channel bytes and
// replicates it into all color channels. Weights are indexed by storage
// channel; entries past the pixel size are ignored.
func Grayscale(buf PixelBuffer, weights [4]float64) PixelBuffer {
	out := blank(buf.Geometry)
	bpp := buf.BytesPerPixel

	parallel.Line(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < buf.Width; x++ {
				i := buf.Offset(x, y)
				var sum float64
				for k := 0; k < bpp && k < len(weights); k++ {
					sum += float64(buf.Pix[i+k]) * weights[k]
				}
				writeIntensity(out, buf, i, i, clampByte(sum))
			}
		}
	})
	return out
}

// ContrastStretch linearly rescales the intensity range of channel 0 so that
// the darkest blackFraction and brightest whiteFraction of pixels saturate.
// When the remaining range collapses to a single level the buffer is
// returned unchanged.
func ContrastStretch(buf PixelBuffer, blackFraction, whiteFraction float64) PixelBuffer {
	var freq [256]int
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			freq[buf.Pix[buf.Offset(x, y)]]++
		}
	}

	total := float64(buf.Width * buf.Height)

	blackPixels := total * blackFraction
	minI, accum := 0, 0
	for minI < 255 {
		accum += freq[minI]
		if float64(accum) > blackPixels {
			break
		}
		minI++
	}

	whitePixels := total * whiteFraction
	maxI := 255
	accum = 0
	for maxI > 0 {
		accum += freq[maxI]
		if float64(accum) > whitePixels {
			break
		}
		maxI--
	}

	if maxI <= minI {
		return buf.Clone()
	}

	spread := 255.0 / float64(maxI-minI)
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampByte(math.Round(float64(v-minI) * spread))
	}

	out := blank(buf.Geometry)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.Offset(x, y)
			writeIntensity(out, buf, i, i, lut[buf.Pix[i]])
		}
	}
	return out
}
