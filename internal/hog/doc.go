// Package hog computes Histogram of Oriented Gradients descriptors for
// fixed-size detection windows.
//
// A window is split into square cells. Each cell gets a histogram of
// unsigned gradient orientations in [0, 180) degrees, where every pixel
// votes its gradient magnitude into the two nearest bins in proportion to
// its distance from them. Neighbouring cells are then grouped into
// overlapping square blocks that advance one cell at a time; each block's
// concatenated histograms are L2 normalised and appended to the feature
// vector in block scan order.
//
// With the default configuration (64x128 window, 8px cells, 9 bins, 2x2
// cells per block) the descriptor has 3780 components.
//
// The extractor reads only the first channel of the window, so windows are
// expected to be intensity images such as the output of imaging.Preprocess.
package hog
