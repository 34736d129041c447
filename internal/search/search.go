// Package search breaks a substitution cipher by greedy hill climbing over
// keys, restarting from a random key on every outer iteration.
package search

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"cipherbreak/pkg/options"
)

// Scorer rates how plausible a candidate plaintext is. Higher is better.
type Scorer interface {
	ScoreBytes(text []byte) float64
}

type StopReason int

const (
	Completed StopReason = iota // ran MaxIterations restarts
	TimedOut
	Cancelled
)

func (r StopReason) String() string {
	switch r {
	case Completed:
		return "completed"
	case TimedOut:
		return "time limit reached"
	case Cancelled:
		return "interrupted"
	}
	return "unknown"
}

// Iteration is the outcome of one restart.
type Iteration struct {
	Index int // 1-based
	Key   Key
	Score float64
}

// Summary describes a finished Run.
type Summary struct {
	Iterations int
	Reason     StopReason
	Elapsed    time.Duration
}

// Searcher is not safe for concurrent use; its State is.
type Searcher struct {
	scorer Scorer
	opts   options.SearchOptions
	rnd    *rand.Rand
	state  State

	// Trace, when set, sees the starting score of every restart (step 0) and
	// every accepted swap.
	Trace func(step int, score float64)
}

func New(scorer Scorer, opts ...options.Options) *Searcher {
	o := options.Resolve(opts...)
	seed := o.Seed
	if !o.Seeded {
		seed = rand.Uint64()
	}
	return &Searcher{
		scorer: scorer,
		opts:   o,
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Searcher) Options() options.SearchOptions { return s.opts }

// State exposes the progress of a running search.
func (s *Searcher) State() *State { return &s.state }

// Run restarts the climb until MaxIterations, the time limit or ctx
// cancellation, whichever comes first. Both limits are checked before each
// restart; a started restart always runs all its steps. emit is called once
// per restart.
func (s *Searcher) Run(ctx context.Context, text string, emit func(Iteration)) Summary {
	start := s.opts.Now()
	sum := Summary{Reason: Completed}
	for it := 0; it < s.opts.MaxIterations; it++ {
		if ctx.Err() != nil {
			sum.Reason = Cancelled
			break
		}
		if s.opts.TimeLimit > 0 && s.opts.Now().Sub(start) > s.opts.TimeLimit {
			sum.Reason = TimedOut
			break
		}

		key, score := s.Climb(text, RandomKey(s.rnd))
		sum.Iterations++
		s.state.set(sum.Iterations, key, score)
		if emit != nil {
			emit(Iteration{Index: sum.Iterations, Key: key, Score: score})
		}
	}
	sum.Elapsed = s.opts.Now().Sub(start)
	return sum
}

// Climb runs one restart's local search from start: Steps random swaps of two
// distinct positions, each kept only if it strictly improves the score.
func (s *Searcher) Climb(text string, start Key) (Key, float64) {
	buf := make([]byte, len(text))
	current := start
	decodeInto(buf, text, current.inverse())
	best := s.scorer.ScoreBytes(buf)
	if s.Trace != nil {
		s.Trace(0, best)
	}

	for step := 1; step <= s.opts.Steps; step++ {
		a := s.rnd.IntN(26)
		b := s.rnd.IntN(25)
		if b >= a {
			b++
		}
		candidate := current
		candidate.Swap(a, b)
		decodeInto(buf, text, candidate.inverse())
		if score := s.scorer.ScoreBytes(buf); score > best {
			current, best = candidate, score
			if s.Trace != nil {
				s.Trace(step, best)
			}
		}
	}
	return current, best
}

// State is the last completed restart, guarded for readers on other
// goroutines such as a signal handler.
type State struct {
	mu        sync.Mutex
	iteration int
	key       Key
	score     float64
}

type Snapshot struct {
	Iteration int // 0 until the first restart completes
	Key       Key
	Score     float64
}

func (st *State) set(it int, k Key, score float64) {
	st.mu.Lock()
	st.iteration, st.key, st.score = it, k, score
	st.mu.Unlock()
}

func (st *State) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Snapshot{Iteration: st.iteration, Key: st.key, Score: st.score}
}
