// Package imaging provides the raster layer of the detector: raw pixel
// buffers, the filter engine that prepares them for gradient analysis, and
// the helpers that load, cut and annotate images.
//
// # Pixel Buffers
//
// A PixelBuffer is a byte raster described by an immutable Geometry (size,
// stride, bytes per pixel, resolution and channel layout). Geometry values
// are created once per image and passed explicitly to every operation;
// there is no shared state between calls. Filters never modify their input
// and always return a new buffer.
//
// Coordinates are 0-based with (0,0) at the top-left corner. Rectangles use
// image.Rectangle semantics: Min inclusive, Max exclusive.
//
// # Filter Engine
//
// Preprocess runs the fixed pipeline used ahead of HOG extraction:
//
//  1. Grayscale: weighted sum of the channel bytes, replicated into every
//     color channel. Alpha passes through.
//  2. ContrastStretch: linear rescale between the intensities that clip the
//     requested dark and bright fractions of the histogram.
//  3. MakeBordered: a one pixel frame of replicated edge pixels.
//  4. Each selected kernel filter, in order. The frame is rebuilt from the
//     previous output before every kernel.
//  5. StripBorder.
//
// Convolution normalises the weighted sum by the kernel's coefficient sum
// (never below 1), adds an offset and clamps to a byte. Sobel is a dual
// convolution combined as the gradient magnitude. Rows are processed in
// parallel with bild's parallel.Line; every row writes a disjoint range of
// the output buffer.
//
// # Windows and Overlays
//
// CropResize and MirrorHorizontal cut detection windows and training
// samples. DrawDetections renders boxes over a source image with one
// palette color per box.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are pure and
// may run concurrently on shared input buffers.
package imaging
