package detection

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"
)

// Rect is a bounding box in pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFromImage converts a standard library rectangle.
func RectFromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Image returns r as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center is the real-valued midpoint of r.
func (r Rect) Center() Point {
	return Point{
		X: float64(r.X) + float64(r.Width)/2,
		Y: float64(r.Y) + float64(r.Height)/2,
	}
}

// Overlaps reports whether r and o share at least one pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Point is a real-valued position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance is the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Within reports whether q lies no farther than tolerance from p.
func (p Point) Within(q Point, tolerance float64) bool {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx+dy*dy <= tolerance*tolerance
}

// Candidate is one window the classifier accepted during a scan pass.
type Candidate struct {
	// ID numbers candidates within one scan pass.
	ID int `json:"id"`
	// Frame is the window in source image coordinates.
	Frame Rect `json:"frame"`
	// Score is the classifier probability, at least the scan threshold.
	Score float64 `json:"score"`
	// Label is "<width>_<height>_<id>".
	Label string `json:"label"`
}

// Center is the midpoint of the candidate's frame.
func (c Candidate) Center() Point {
	return c.Frame.Center()
}

// Detection is a final, clustered result.
type Detection struct {
	Frame   Rect    `json:"frame"`
	Center  Point   `json:"center"`
	Score   float64 `json:"score"`
	Members int     `json:"members"`
}

// SortByScore orders candidates by descending score. Equal scores keep
// their relative order.
func SortByScore(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

// SortDetections orders detections by descending score, keeping the
// relative order of ties.
func SortDetections(dets []Detection) {
	slices.SortStableFunc(dets, func(a, b Detection) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

// Frames returns the frame of every detection.
func Frames(dets []Detection) []Rect {
	out := make([]Rect, len(dets))
	for i, d := range dets {
		out[i] = d.Frame
	}
	return out
}
