package detection

import (
	"errors"
	"fmt"
)

// ErrNoGroundTruth is returned when there are no annotated objects to
// evaluate against.
var ErrNoGroundTruth = errors.New("no ground truth objects")

// Evaluation summarises how well found frames match annotated ones.
type Evaluation struct {
	// Truth is the number of annotated objects.
	Truth int `json:"truth"`
	// Found is the number of reported frames.
	Found int `json:"found"`
	// Matched counts annotated objects with at least one found frame
	// whose centre lies within tolerance of theirs.
	Matched int `json:"matched"`
	// FalsePositives counts found frames that match no annotated object.
	FalsePositives int `json:"false_positives"`
}

// Rate is the percentage of annotated objects that were matched.
func (e Evaluation) Rate() float64 {
	if e.Truth == 0 {
		return 0
	}
	return float64(e.Matched) * 100 / float64(e.Truth)
}

// Compare matches found frames against truth image by image. truth[i] and
// found[i] must describe the same image. Empty frames never match.
func Compare(truth, found [][]Rect, tolerance float64) (Evaluation, error) {
	if len(truth) != len(found) {
		return Evaluation{}, fmt.Errorf("annotation count %d does not match image count %d", len(truth), len(found))
	}

	var ev Evaluation
	for i := range truth {
		for _, t := range truth[i] {
			ev.Truth++
			tc := t.Center()
			for _, f := range found[i] {
				if !f.Empty() && tc.Within(f.Center(), tolerance) {
					ev.Matched++
					break
				}
			}
		}

		for _, f := range found[i] {
			ev.Found++
			hit := false
			if !f.Empty() {
				fc := f.Center()
				for _, t := range truth[i] {
					if fc.Within(t.Center(), tolerance) {
						hit = true
						break
					}
				}
			}
			if !hit {
				ev.FalsePositives++
			}
		}
	}

	if ev.Truth == 0 {
		return ev, ErrNoGroundTruth
	}
	return ev, nil
}
