package decipher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"cipherbreak/internal/alphabet"
	"cipherbreak/internal/ngram"
	"cipherbreak/internal/results"
	"cipherbreak/pkg/options"
)

type memStore struct {
	words []string
	err   error
}

func (m *memStore) Add(_ context.Context, words ...string) error {
	if m.err != nil {
		return m.err
	}
	m.words = append(m.words, words...)
	return nil
}

func (m *memStore) Remove(_ context.Context, word string) error {
	if m.err != nil {
		return m.err
	}
	for i, w := range m.words {
		if w == word {
			m.words = append(m.words[:i], m.words[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) All(context.Context) ([]string, error) { return m.words, m.err }

func plaintextModel(t *testing.T, text string, l int) *ngram.Model {
	t.Helper()
	m, err := ngram.FromCounts(ngram.CountText(text, l))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func testConfig() DecipherConfig {
	cfg := DefaultConfig()
	cfg.Cipher.CommonWords = []string{"there", "is", "a", "secret"}
	seed := uint64(2024)
	cfg.Search.Seed = &seed
	cfg.Search.TimeLimit = time.Minute
	return cfg
}

func TestDecipherCaesar(t *testing.T) {
	model := plaintextModel(t, "THERE IS A SECRET", 4)
	d, err := NewDecipherer(testConfig(), model, nil)
	if err != nil {
		t.Fatal(err)
	}

	iterations := 0
	rep := d.Decipher(context.Background(), "WKHUH LV D VHFUHW", func(c results.Candidate) {
		iterations++
		if c.Iteration != iterations {
			t.Fatalf("candidate iteration %d, want %d", c.Iteration, iterations)
		}
	})
	if rep.Iterations != 1000 || rep.Stop != "completed" {
		t.Errorf("Iterations = %d, Stop = %q", rep.Iterations, rep.Stop)
	}
	if len(rep.Top) == 0 || len(rep.Top) > 3 {
		t.Fatalf("Top = %s", spew.Sdump(rep.Top))
	}
	best := rep.Top[0]
	if best.Text != "THERE IS A SECRET" || best.Percent != 100 {
		t.Errorf("best = %s", spew.Sdump(best))
	}
	// W decodes to T, so the key holds W at position T.
	if best.Key['T'-'A'] != 'W' || best.Key['E'-'A'] != 'H' {
		t.Errorf("key %s does not invert the shift", best.Key)
	}
	if best.OriginalKey != best.Key {
		t.Errorf("letters-only ciphertext should keep the key, got %s vs %s", best.OriginalKey, best.Key)
	}
}

func TestDecipherAnchorsOnly(t *testing.T) {
	model := plaintextModel(t, "THERE IS A SECRET", 4)
	cfg := testConfig()
	cfg.Search.MaxIterations = 10
	cfg.Search.Steps = 50
	d, err := NewDecipherer(cfg, model, nil)
	if err != nil {
		t.Fatal(err)
	}
	var scores []float64
	rep := d.Decipher(context.Background(), "   ", func(c results.Candidate) {
		scores = append(scores, c.Score)
	})
	if rep.Iterations != 10 || len(scores) != 10 {
		t.Fatalf("Iterations = %d, candidates = %d", rep.Iterations, len(scores))
	}
	for _, s := range scores {
		if s != scores[0] {
			t.Errorf("scores differ: %v", scores)
		}
	}
	for _, c := range rep.Top {
		if c.Percent != 0 || c.Text != "   " {
			t.Errorf("degenerate candidate = %s", spew.Sdump(c))
		}
	}
}

func TestSessionSpecialSymbols(t *testing.T) {
	// '#' stands for E, '1' for T: the plaintext is "THE TREE".
	model := plaintextModel(t, "THE TREE", 2)
	cfg := testConfig()
	cfg.Search.MaxIterations = 3
	cfg.Search.Steps = 10
	d, err := NewDecipherer(cfg, model, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := d.NewSession("1H# 1R##", nil)
	n := s.Normalized()
	if n.Text != "AHBARBB" {
		t.Fatalf("Normalized = %q", n.Text)
	}
	rep := s.Run(context.Background(), nil)
	want := []SpecialPair{{"1", "A"}, {"#", "B"}}
	if len(rep.Special) != 2 || rep.Special[0] != want[0] || rep.Special[1] != want[1] {
		t.Errorf("Special = %v, want %v", rep.Special, want)
	}
	for _, c := range rep.Top {
		if c.OriginalKey != alphabet.OriginalKey(c.Key, n.Special) {
			t.Errorf("OriginalKey %q does not match key %q", c.OriginalKey, c.Key)
		}
		if len([]rune(c.Text)) != len("1H# 1R##") || []rune(c.Text)[3] != ' ' {
			t.Errorf("anchor not restored in %q", c.Text)
		}
	}
}

func TestSessionInterrupted(t *testing.T) {
	model := plaintextModel(t, "THERE IS A SECRET", 4)
	d, err := NewDecipherer(testConfig(), model, nil)
	if err != nil {
		t.Fatal(err)
	}
	anchors := " "
	s := d.NewSession("WKHUH LV D VHFUHW", &anchors, options.WithSteps(20))

	if rep := s.Finalize(); rep.Stop != "in progress" || len(rep.Top) != 0 {
		t.Errorf("Finalize before Run = %s", spew.Sdump(rep))
	}

	ctx, cancel := context.WithCancel(context.Background())
	rep := s.Run(ctx, func(c results.Candidate) {
		if c.Iteration == 5 {
			cancel()
		}
	})
	if rep.Stop != "interrupted" || rep.Iterations != 5 {
		t.Errorf("Stop = %q, Iterations = %d", rep.Stop, rep.Iterations)
	}
	if len(rep.Top) != 3 {
		t.Errorf("len(Top) = %d, want 3", len(rep.Top))
	}
	if again := s.Finalize(); spew.Sdump(again) != spew.Sdump(rep) {
		t.Errorf("Finalize after Run differs from Run's report")
	}
	if it, key := s.Progress(); it != 5 || len(key) != 26 {
		t.Errorf("Progress() = %d, %q", it, key)
	}
}

func TestCommonWordsStore(t *testing.T) {
	model := plaintextModel(t, "THERE IS A SECRET", 4)
	store := &memStore{words: []string{"Zebra"}}
	d, err := NewDecipherer(testConfig(), model, store)
	if err != nil {
		t.Fatal(err)
	}
	if !d.CommonWords().Contains("zebra") {
		t.Errorf("stored word not loaded")
	}
	ctx := context.Background()
	if err := d.AddCommonWord(ctx, "quartz"); err != nil {
		t.Fatal(err)
	}
	if !d.CommonWords().Contains("quartz") || len(store.words) != 2 {
		t.Errorf("AddCommonWord not applied: %v", store.words)
	}
	if err := d.RemoveCommonWord(ctx, "quartz"); err != nil {
		t.Fatal(err)
	}
	if d.CommonWords().Contains("quartz") {
		t.Errorf("RemoveCommonWord not applied")
	}

	store.err = errors.New("down")
	if err := d.AddCommonWord(ctx, "fail"); err == nil {
		t.Errorf("AddCommonWord with failing store expected error")
	}
	if d.CommonWords().Contains("fail") {
		t.Errorf("word added despite store failure")
	}
}

func TestNewDeciphererStoreFailureIsNotFatal(t *testing.T) {
	model := plaintextModel(t, "THERE IS A SECRET", 4)
	if _, err := NewDecipherer(testConfig(), model, &memStore{err: errors.New("down")}); err != nil {
		t.Errorf("NewDecipherer() error = %v", err)
	}
	if _, err := NewDecipherer(testConfig(), nil, nil); err == nil {
		t.Errorf("NewDecipherer(nil model) expected error")
	}
}

func TestCommonWordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# extra\nOrchid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Cipher.CommonWordsFile = path
	d, err := NewDecipherer(cfg, plaintextModel(t, "ABCD", 4), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !d.CommonWords().Contains("orchid") {
		t.Errorf("word file not loaded")
	}

	cfg.Cipher.CommonWordsFile = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := NewDecipherer(cfg, plaintextModel(t, "ABCD", 4), nil); err == nil {
		t.Errorf("missing word file expected error")
	}
}
