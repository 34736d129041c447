// Package ngram scores text against a table of fixed-length letter sequence
// frequencies (quadgrams in the usual setup).
package ngram

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"
)

// DefaultSeparator separates the sequence from its count on each line.
const DefaultSeparator = " "

// Model holds log10 probabilities of every sequence in the table. It is
// immutable once loaded and safe for concurrent use.
type Model struct {
	logp  map[string]float64
	l     int
	total float64
	floor float64
}

// Load reads "<seq><sep><count>" lines from r.
func Load(r io.Reader, sep string) (*Model, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ngrams: %w", err)
	}
	return Parse(raw, sep)
}

// LoadFile memory-maps path and parses it.
func LoadFile(path, sep string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: empty ngram table", path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer m.Unmap()

	model, err := Parse(m, sep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// Parse builds a model from the raw table contents. Every sequence must have
// the length of the first one; a bad line fails the whole load.
func Parse(raw []byte, sep string) (*Model, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	counts := make(map[string]uint64)
	l := 0
	lno := 0
	for len(raw) > 0 {
		var line []byte
		if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
			line, raw = raw[:idx], raw[idx+1:]
		} else {
			line, raw = raw, nil
		}
		lno++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		key, count, err := parseLine(line, sep)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lno, err)
		}
		if l == 0 {
			l = len(key)
		} else if len(key) != l {
			return nil, fmt.Errorf("line %d: sequence %q has length %d, want %d", lno, key, len(key), l)
		}
		if count == 0 {
			// never observed, scored at the floor like any unseen sequence
			continue
		}
		counts[key] = count
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("empty ngram table")
	}
	return fromCounts(counts, l), nil
}

func parseLine(line []byte, sep string) (string, uint64, error) {
	fields := bytes.Split(line, []byte(sep))
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("want 2 fields, got %d", len(fields))
	}
	if len(fields[0]) == 0 {
		return "", 0, fmt.Errorf("empty sequence")
	}
	n, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parse count: %w", err)
	}
	return string(fields[0]), n, nil
}

// FromCounts builds a model directly from sequence counts. All keys must share
// one length. Zero counts are dropped.
func FromCounts(counts map[string]uint64) (*Model, error) {
	kept := make(map[string]uint64, len(counts))
	l := 0
	for k, c := range counts {
		if l == 0 {
			l = len(k)
		} else if len(k) != l {
			return nil, fmt.Errorf("sequence %q has length %d, want %d", k, len(k), l)
		}
		if c > 0 {
			kept[k] = c
		}
	}
	if len(kept) == 0 || l == 0 {
		return nil, fmt.Errorf("empty ngram table")
	}
	return fromCounts(kept, l), nil
}

// CountText counts every window of l letters in the A-Z letters of text,
// ignoring everything else. It is how a table is trained from a corpus.
func CountText(text string, l int) map[string]uint64 {
	letters := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		if 'A' <= c && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	counts := make(map[string]uint64)
	for i := 0; l > 0 && i+l <= len(letters); i++ {
		counts[string(letters[i:i+l])]++
	}
	return counts
}

func fromCounts(counts map[string]uint64, l int) *Model {
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	m := &Model{
		logp:  make(map[string]float64, len(counts)),
		l:     l,
		total: total,
		floor: math.Log10(0.01 / total),
	}
	for k, c := range counts {
		m.logp[k] = math.Log10(float64(c) / total)
	}
	return m
}

// Len is the sequence length of the table.
func (m *Model) Len() int { return m.l }

// Total is the sum of all counts.
func (m *Model) Total() float64 { return m.total }

// Floor is the log probability charged for an unseen sequence.
func (m *Model) Floor() float64 { return m.floor }

// Size is the number of distinct sequences.
func (m *Model) Size() int { return len(m.logp) }

// LogProb returns the log probability of seq and whether the table holds it.
func (m *Model) LogProb(seq string) (float64, bool) {
	p, ok := m.logp[seq]
	return p, ok
}

// Score sums the log probabilities of every overlapping window of text.
// Higher (closer to zero) means more plausible.
func (m *Model) Score(text string) float64 {
	var score float64
	for i := 0; i+m.l <= len(text); i++ {
		if p, ok := m.logp[text[i:i+m.l]]; ok {
			score += p
		} else {
			score += m.floor
		}
	}
	return score
}

// ScoreBytes is Score for a byte slice, without allocating.
func (m *Model) ScoreBytes(text []byte) float64 {
	var score float64
	for i := 0; i+m.l <= len(text); i++ {
		if p, ok := m.logp[string(text[i:i+m.l])]; ok {
			score += p
		} else {
			score += m.floor
		}
	}
	return score
}
