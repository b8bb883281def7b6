package cluster

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/hogscan/internal/detection"
)

// DefaultMaxIterations bounds the refinement loop.
const DefaultMaxIterations = 100

// Cluster is a group of candidates around a common centre.
type Cluster struct {
	Center  detection.Point
	Members []detection.Candidate
}

// Frame is a box with the mean member width and height centred on the
// cluster centre. Coordinates and size are truncated to whole pixels.
func (c Cluster) Frame() detection.Rect {
	if len(c.Members) == 0 {
		return detection.Rect{X: int(c.Center.X), Y: int(c.Center.Y)}
	}
	widths := make([]float64, len(c.Members))
	heights := make([]float64, len(c.Members))
	for i, m := range c.Members {
		widths[i] = float64(m.Frame.Width)
		heights[i] = float64(m.Frame.Height)
	}
	w, h := stat.Mean(widths, nil), stat.Mean(heights, nil)
	return detection.Rect{
		X:      int(c.Center.X - w/2),
		Y:      int(c.Center.Y - h/2),
		Width:  int(w),
		Height: int(h),
	}
}

// Score is the highest member score.
func (c Cluster) Score() float64 {
	best := 0.0
	for _, m := range c.Members {
		if m.Score > best {
			best = m.Score
		}
	}
	return best
}

// Detection converts c into a final result.
func (c Cluster) Detection() detection.Detection {
	return detection.Detection{
		Frame:   c.Frame(),
		Center:  c.Center,
		Score:   c.Score(),
		Members: len(c.Members),
	}
}

// Clusters groups cands around the seeds chosen by FindCenters. Each round
// assigns every candidate to its nearest centre, ties going to the lower
// cluster index, then moves each centre to the mean of its members' centres.
// It stops once a round leaves every assignment unchanged or after maxIter
// rounds (DefaultMaxIterations when maxIter <= 0). A centre that attracts no
// members keeps its position; such clusters are left out of the result.
func Clusters(cands []detection.Candidate, threshold float64, maxIter int) ([]Cluster, error) {
	seeds, err := FindCenters(cands, threshold)
	if err != nil {
		return nil, err
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	points := make([]detection.Point, len(cands))
	for i, c := range cands {
		points[i] = c.Center()
	}
	centers := make([]detection.Point, len(seeds))
	for k, s := range seeds {
		centers[k] = points[s]
	}

	assign := make([]int, len(cands))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, p.Distance(centers[0])
			for k := 1; k < len(centers); k++ {
				if d := p.Distance(centers[k]); d < bestDist {
					best, bestDist = k, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		for k := range centers {
			var xs, ys []float64
			for i, a := range assign {
				if a == k {
					xs = append(xs, points[i].X)
					ys = append(ys, points[i].Y)
				}
			}
			if len(xs) > 0 {
				centers[k] = detection.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
			}
		}

		if !changed {
			break
		}
	}

	clusters := make([]Cluster, len(centers))
	for k := range clusters {
		clusters[k].Center = centers[k]
	}
	for i, a := range assign {
		clusters[a].Members = append(clusters[a].Members, cands[i])
	}

	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Members) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

// Detections clusters cands and returns one detection per cluster, highest
// score first. An empty input yields no detections and no error.
func Detections(cands []detection.Candidate, threshold float64, maxIter int) ([]detection.Detection, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	clusters, err := Clusters(cands, threshold, maxIter)
	if err != nil {
		return nil, err
	}
	dets := make([]detection.Detection, len(clusters))
	for i, c := range clusters {
		dets[i] = c.Detection()
	}
	detection.SortDetections(dets)
	return dets, nil
}
