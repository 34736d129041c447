// Package results keeps the best few deciphering candidates across restarts.
package results

import "sync"

// DefaultTopK is the number of candidates reported.
const DefaultTopK = 3

// Candidate is one restart's outcome.
type Candidate struct {
	Iteration   int     `json:"iteration"`
	Text        string  `json:"text"`    // decoded text with anchors restored
	Score       float64 `json:"score"`   // ngram fitness
	Percent     float64 `json:"percent"` // common-word percentage
	Key         string  `json:"key"`     // working key over A-Z
	OriginalKey string  `json:"original_key"`
}

// Tracker holds at most k candidates ordered by descending Percent. Equal
// percentages keep insertion order. It is safe for concurrent use.
type Tracker struct {
	mu  sync.Mutex
	k   int
	set []Candidate
}

func NewTracker(k int) *Tracker {
	if k < 1 {
		k = 1
	}
	return &Tracker{k: k, set: make([]Candidate, 0, k+1)}
}

// Record inserts c and reports whether it made the top k.
func (t *Tracker) Record(c Candidate) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	// first slot holding a strictly lower percentage
	pos := len(t.set)
	for i, x := range t.set {
		if x.Percent < c.Percent {
			pos = i
			break
		}
	}
	if pos >= t.k {
		return false
	}
	t.set = append(t.set, Candidate{})
	copy(t.set[pos+1:], t.set[pos:])
	t.set[pos] = c
	if len(t.set) > t.k {
		t.set = t.set[:t.k]
	}
	return true
}

// Report returns the candidates in rank order.
func (t *Tracker) Report() []Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Candidate, len(t.set))
	copy(out, t.set)
	return out
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.set)
}

// Best returns the top candidate.
func (t *Tracker) Best() (Candidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.set) == 0 {
		return Candidate{}, false
	}
	return t.set[0], true
}
