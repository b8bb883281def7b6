package scan

// Scorer maps a feature vector to the probability, in [0, 1], that the
// window contains the target object. Implementations must be deterministic
// and safe for concurrent use: every scale pass calls Probability from its
// own goroutine.
type Scorer interface {
	Probability(features []float64) (float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(features []float64) (float64, error)

// Probability calls f.
func (f ScorerFunc) Probability(features []float64) (float64, error) {
	return f(features)
}
