package recognizer

// ConfidenceStats accumulates chosen-label confidences in classification order.
// The zero value is not ready; use NewConfidenceStats.
type ConfidenceStats struct {
	sum   float64
	min   float32
	max   float32
	count int
}

// NewConfidenceStats returns an accumulator with min at 1 and max at 0.
func NewConfidenceStats() ConfidenceStats {
	return ConfidenceStats{min: 1, max: 0}
}

// Add records one confidence.
func (s *ConfidenceStats) Add(c float32) {
	s.sum += float64(c)
	if c < s.min {
		s.min = c
	}
	if c > s.max {
		s.max = c
	}
	s.count++
}

// Count returns how many confidences were added.
func (s ConfidenceStats) Count() int { return s.count }

// Summary returns mean, min and max. ok is false when nothing was added.
func (s ConfidenceStats) Summary() (mean, min, max float32, ok bool) {
	if s.count == 0 {
		return 0, 0, 0, false
	}
	return float32(s.sum / float64(s.count)), s.min, s.max, true
}
