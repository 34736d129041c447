// Package heuristic estimates how much of a decoded text is real English by
// counting known common words. It ranks results only; the search never sees it.
package heuristic

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\b[a-z]+\b`)

// WordSet is a set of lowercase words.
type WordSet map[string]struct{}

func NewWordSet(words ...string) WordSet {
	ws := make(WordSet, len(words))
	for _, w := range words {
		ws.Add(w)
	}
	return ws
}

func (ws WordSet) Add(w string) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w != "" {
		ws[w] = struct{}{}
	}
}

func (ws WordSet) Remove(w string) { delete(ws, strings.ToLower(strings.TrimSpace(w))) }

func (ws WordSet) Contains(w string) bool {
	_, ok := ws[w]
	return ok
}

func (ws WordSet) Len() int { return len(ws) }

// LoadWords adds one word per line from r. Empty lines and lines starting
// with '#' are skipped.
func (ws WordSet) LoadWords(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ws.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read words: %w", err)
	}
	return nil
}

// PercentEnglish returns the share, in [0,100], of letter-only words in text
// that are in words. Text with no such words scores 0.
func PercentEnglish(text string, words WordSet) float64 {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return 0
	}
	known := 0
	for _, tok := range tokens {
		if words.Contains(tok) {
			known++
		}
	}
	return float64(known) / float64(len(tokens)) * 100
}
