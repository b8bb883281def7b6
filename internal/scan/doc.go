// Package scan implements the multi-scale sliding window search.
//
// Each scale pass moves a window of one size across the source image,
// resamples every window to the descriptor size, extracts its HOG features
// and asks a Scorer for a probability. Windows at or above the threshold
// become candidates. Passes for different scales run in parallel and share
// nothing but the read-only source buffer; the scan returns only when every
// pass has finished, or with the first error if any pass fails.
package scan
