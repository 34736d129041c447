// Package decipher ties the pieces together: normalize the ciphertext, run
// the key search, rank every restart by common words and keep the best.
package decipher

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cipherbreak/internal/alphabet"
	"cipherbreak/internal/heuristic"
	"cipherbreak/internal/ngram"
	"cipherbreak/internal/results"
	"cipherbreak/internal/search"
	"cipherbreak/pkg/options"
)

// WordStore persists extra common words, see commonwords.Store.
type WordStore interface {
	Add(ctx context.Context, words ...string) error
	Remove(ctx context.Context, word string) error
	All(ctx context.Context) ([]string, error)
}

type Decipherer struct {
	config DecipherConfig
	model  *ngram.Model
	store  WordStore

	mu    sync.RWMutex
	words heuristic.WordSet
}

// NewDecipherer builds the engine around a loaded model. Common words come
// from the config, the configured word file and store (may be nil).
func NewDecipherer(cfg DecipherConfig, model *ngram.Model, store WordStore) (*Decipherer, error) {
	if model == nil {
		return nil, fmt.Errorf("nil ngram model")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Decipherer{
		config: cfg,
		model:  model,
		store:  store,
		words:  heuristic.NewWordSet(cfg.Cipher.CommonWords...),
	}
	if path := cfg.Cipher.CommonWordsFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open common words: %w", err)
		}
		err = d.words.LoadWords(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	d.loadStoredWords()
	return d, nil
}

func (d *Decipherer) loadStoredWords() {
	if d.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	words, err := d.store.All(ctx)
	if err != nil {
		log.Printf("warning: could not load stored common words: %v", err)
		return
	}
	for _, w := range words {
		d.words.Add(w)
	}
}

func (d *Decipherer) Config() DecipherConfig { return d.config }

func (d *Decipherer) Model() *ngram.Model { return d.model }

// CommonWords returns a copy of the current word set.
func (d *Decipherer) CommonWords() heuristic.WordSet {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ws := make(heuristic.WordSet, len(d.words))
	for w := range d.words {
		ws[w] = struct{}{}
	}
	return ws
}

// AddCommonWord adds a word to the heuristic and the store.
func (d *Decipherer) AddCommonWord(ctx context.Context, word string) error {
	if d.store != nil {
		if err := d.store.Add(ctx, word); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.words.Add(word)
	d.mu.Unlock()
	return nil
}

// RemoveCommonWord removes a word from the heuristic and the store.
func (d *Decipherer) RemoveCommonWord(ctx context.Context, word string) error {
	if d.store != nil {
		if err := d.store.Remove(ctx, word); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.words.Remove(word)
	d.mu.Unlock()
	return nil
}

// Session is one deciphering run. Its progress and results can be read from
// another goroutine while Run is in progress.
type Session struct {
	ciphertext string
	norm       alphabet.Normalized
	words      heuristic.WordSet
	searcher   *search.Searcher
	tracker    *results.Tracker

	mu      sync.Mutex
	summary search.Summary
	done    bool
}

// NewSession prepares a run over ciphertext. anchors overrides the configured
// anchor characters when non-nil; opts override the configured search
// settings.
func (d *Decipherer) NewSession(ciphertext string, anchors *string, opts ...options.Options) *Session {
	anchorChars := d.config.Cipher.AnchorChars
	if anchors != nil {
		anchorChars = *anchors
	}
	all := append(d.config.Search.Options(), opts...)
	searcher := search.New(d.model, all...)
	return &Session{
		ciphertext: ciphertext,
		norm:       alphabet.Transform(ciphertext, anchorChars),
		words:      d.CommonWords(),
		searcher:   searcher,
		tracker:    results.NewTracker(searcher.Options().TopK),
	}
}

// Decipher runs a whole session with the configured settings.
func (d *Decipherer) Decipher(ctx context.Context, ciphertext string, onCandidate func(results.Candidate)) Report {
	return d.NewSession(ciphertext, nil).Run(ctx, onCandidate)
}

// Normalized is the letter stream the search works on.
func (s *Session) Normalized() alphabet.Normalized { return s.norm }

// Run searches until the iteration limit, the time limit or ctx is done, then
// returns the same Report that Finalize would.
func (s *Session) Run(ctx context.Context, onCandidate func(results.Candidate)) Report {
	sum := s.searcher.Run(ctx, s.norm.Text, func(it search.Iteration) {
		c := s.candidate(it)
		s.tracker.Record(c)
		if onCandidate != nil {
			onCandidate(c)
		}
	})
	s.mu.Lock()
	s.summary, s.done = sum, true
	s.mu.Unlock()
	return s.Finalize()
}

func (s *Session) candidate(it search.Iteration) results.Candidate {
	key := it.Key.String()
	text := alphabet.RestoreAnchors(search.Decode(s.norm.Text, it.Key), s.norm.Anchors)
	return results.Candidate{
		Iteration:   it.Index,
		Text:        text,
		Score:       it.Score,
		Percent:     heuristic.PercentEnglish(text, s.words),
		Key:         key,
		OriginalKey: alphabet.OriginalKey(key, s.norm.Special),
	}
}

// Progress reports the last completed restart and its key in original
// ciphertext symbols.
func (s *Session) Progress() (iteration int, originalKey string) {
	snap := s.searcher.State().Snapshot()
	if snap.Iteration == 0 {
		return 0, ""
	}
	return snap.Iteration, alphabet.OriginalKey(snap.Key.String(), s.norm.Special)
}

// Finalize assembles the report from whatever has been accumulated so far.
func (s *Session) Finalize() Report {
	s.mu.Lock()
	sum, done := s.summary, s.done
	s.mu.Unlock()
	stop := sum.Reason.String()
	if !done {
		sum.Iterations, _ = s.Progress()
		stop = "in progress"
	}
	return Report{
		Ciphertext: s.ciphertext,
		Normalized: s.norm.Text,
		Special:    specialPairs(s.norm.Special),
		Unmapped:   string(s.norm.Unmapped),
		Top:        s.tracker.Report(),
		Reason:     sum.Reason,
		Stop:       stop,
		Iterations: sum.Iterations,
		Elapsed:    sum.Elapsed,
	}
}
