package spray

import "iter"

// Sequence streams ordered targets to a consumer, one visit per target.
// Next advances a single cursor; All and Reset make the sequence restartable.
// A Sequence is not safe for concurrent use.
type Sequence struct {
	targets []ScoredTarget
	next    int
}

// NewSequence copies ordered so later changes by the caller have no effect.
func NewSequence(ordered []ScoredTarget) *Sequence {
	ts := make([]ScoredTarget, len(ordered))
	copy(ts, ordered)
	return &Sequence{targets: ts}
}

// Len returns the total number of visits.
func (s *Sequence) Len() int {
	return len(s.targets)
}

// Remaining returns the number of visits not yet returned by Next.
func (s *Sequence) Remaining() int {
	return len(s.targets) - s.next
}

// Next returns the next target, or false once the sequence is exhausted.
func (s *Sequence) Next() (ScoredTarget, bool) {
	if s.next >= len(s.targets) {
		return ScoredTarget{}, false
	}
	t := s.targets[s.next]
	s.next++
	return t, true
}

// Reset rewinds the cursor to the first visit.
func (s *Sequence) Reset() {
	s.next = 0
}

// All iterates every visit from the start, independent of the Next cursor.
func (s *Sequence) All() iter.Seq2[int, ScoredTarget] {
	return func(yield func(int, ScoredTarget) bool) {
		for i, t := range s.targets {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Leg is the hop the sprayer makes from its previous position to a target.
type Leg struct {
	From     Point   `json:"from"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// Frame is what a renderer or controller receives for one visit.
type Frame struct {
	Index         int             `json:"index"`
	Total         int             `json:"total"`
	Target        ScoredTarget    `json:"target"`
	Leg           Leg             `json:"leg"`
	SprayDiameter float64         `json:"spray_diameter"`
	SprayedArea   float64         `json:"sprayed_area"`
	Summary       CoverageSummary `json:"summary"`
}
