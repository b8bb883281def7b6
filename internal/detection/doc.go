// Package detection holds the result types shared by the scanner, the
// clustering engine and the pedestrian detector, plus the recognition-rate
// evaluation used to score a detector against annotated images.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - A Rect covers X <= x < X+Width and Y <= y < Y+Height
//
// Centres are real-valued: the centre of a 64x128 frame at the origin is
// (32, 64), and of a 65x129 frame (32.5, 64.5).
//
// # Scores
//
// Candidate and detection scores are classifier probabilities in [0, 1].
// A detection built from a cluster of candidates reports the highest score
// among its members.
package detection
