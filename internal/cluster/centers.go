package cluster

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/hogscan/internal/detection"
)

// ErrNoCandidates is returned when clustering is asked to run on an empty
// candidate set.
var ErrNoCandidates = errors.New("no candidates to cluster")

// FindCenters picks seed candidates and returns their indexes into cands in
// the order they were chosen. The first candidate is always the first seed.
// When every candidate lies within threshold of it, it is the only seed.
func FindCenters(cands []detection.Candidate, threshold float64) ([]int, error) {
	if len(cands) == 0 {
		return nil, ErrNoCandidates
	}

	centers := make([]detection.Point, len(cands))
	for i, c := range cands {
		centers[i] = c.Center()
	}

	seeds := []int{0}
	if len(cands) == 1 {
		return seeds, nil
	}

	first := make([]float64, len(cands)-1)
	for i := range first {
		first[i] = centers[0].Distance(centers[i+1])
	}
	farthest := floats.MaxIdx(first)
	l := first[farthest]
	if l < threshold {
		return seeds, nil
	}
	seeds = append(seeds, farthest+1)
	maxDistances := []float64{l}

	picked := make([]bool, len(cands))
	picked[0], picked[farthest+1] = true, true

	for len(seeds) < len(cands) {
		// distance from each unpicked candidate to its nearest seed
		var rest []int
		var nearest []float64
		for i := range cands {
			if picked[i] {
				continue
			}
			d := centers[i].Distance(centers[seeds[0]])
			for _, s := range seeds[1:] {
				if ds := centers[i].Distance(centers[s]); ds < d {
					d = ds
				}
			}
			rest = append(rest, i)
			nearest = append(nearest, d)
		}

		k := floats.MaxIdx(nearest)
		maxValue := nearest[k]
		if floats.Sum(maxDistances)/float64(len(maxDistances)) >= 2*maxValue {
			break
		}

		seeds = append(seeds, rest[k])
		picked[rest[k]] = true
		maxDistances = append(maxDistances, maxValue)
	}

	return seeds, nil
}
