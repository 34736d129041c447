package results

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestTrackerKeepsTopThree(t *testing.T) {
	tr := NewTracker(DefaultTopK)
	for i, p := range []float64{10, 50, 20, 50, 0, 80} {
		tr.Record(Candidate{Iteration: i + 1, Percent: p})
	}
	got := tr.Report()
	want := []int{6, 2, 4} // 80, then the two 50s in insertion order
	if len(got) != len(want) {
		t.Fatalf("Report() = %s", spew.Sdump(got))
	}
	for i, it := range want {
		if got[i].Iteration != it {
			t.Errorf("rank %d = iteration %d, want %d\n%s", i+1, got[i].Iteration, it, spew.Sdump(got))
		}
	}
}

func TestTrackerTieDoesNotDisplace(t *testing.T) {
	tr := NewTracker(2)
	tr.Record(Candidate{Iteration: 1, Percent: 40})
	tr.Record(Candidate{Iteration: 2, Percent: 40})
	if tr.Record(Candidate{Iteration: 3, Percent: 40}) {
		t.Errorf("tied candidate entered a full tracker")
	}
	if best, _ := tr.Best(); best.Iteration != 1 {
		t.Errorf("Best() = %d, want 1", best.Iteration)
	}
}

func TestTrackerInvariantUnderRandomInserts(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	tr := NewTracker(3)
	var all []Candidate
	for i := 0; i < 500; i++ {
		c := Candidate{Iteration: i, Percent: float64(r.IntN(5) * 25)}
		all = append(all, c)
		tr.Record(c)

		got := tr.Report()
		if len(got) > 3 {
			t.Fatalf("tracker holds %d candidates", len(got))
		}
		if !sort.SliceIsSorted(got, func(a, b int) bool { return got[a].Percent > got[b].Percent }) {
			t.Fatalf("tracker not sorted: %s", spew.Sdump(got))
		}
	}

	// same answer as stable sort and truncate over everything seen
	sort.SliceStable(all, func(a, b int) bool { return all[a].Percent > all[b].Percent })
	got := tr.Report()
	for i := range got {
		if got[i] != all[i] {
			t.Errorf("rank %d = %+v, want %+v", i+1, got[i], all[i])
		}
	}
}

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker(0)
	if tr.Len() != 0 || len(tr.Report()) != 0 {
		t.Errorf("new tracker not empty")
	}
	if _, ok := tr.Best(); ok {
		t.Errorf("Best() on empty tracker reported ok")
	}
	tr.Record(Candidate{Percent: 1})
	tr.Record(Candidate{Percent: 2})
	if tr.Len() != 1 {
		t.Errorf("k<1 should clamp to 1, got %d", tr.Len())
	}
}
