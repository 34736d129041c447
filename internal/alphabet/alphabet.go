// Package alphabet turns an arbitrary ciphertext into the pure A-Z stream the
// key search works on, and maps results back to the original symbols.
package alphabet

import (
	"sort"
	"strings"
	"unicode"
)

// Anchor is a character that must come back verbatim at Index (a rune offset
// into the original ciphertext).
type Anchor struct {
	Index int
	Char  rune
}

// SpecialMap pairs cipher symbols outside A-Z with letters the ciphertext
// does not use. It is a bijection.
type SpecialMap struct {
	toLetter map[rune]byte
	toSymbol map[byte]rune
	order    []rune
}

func newSpecialMap() SpecialMap {
	return SpecialMap{toLetter: make(map[rune]byte), toSymbol: make(map[byte]rune)}
}

func (m SpecialMap) add(sym rune, letter byte) {
	m.toLetter[sym] = letter
	m.toSymbol[letter] = sym
}

// Encode returns the letter standing in for sym.
func (m SpecialMap) Encode(sym rune) (byte, bool) {
	b, ok := m.toLetter[sym]
	return b, ok
}

// Decode returns the original symbol a stand-in letter replaced.
func (m SpecialMap) Decode(letter byte) (rune, bool) {
	r, ok := m.toSymbol[letter]
	return r, ok
}

// Len is the number of mapped symbols.
func (m SpecialMap) Len() int { return len(m.order) }

// Pair is one special symbol and its stand-in letter.
type Pair struct {
	Symbol rune
	Letter byte
}

// Pairs lists the mapping in first-occurrence order of the symbols.
func (m SpecialMap) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.order))
	for _, r := range m.order {
		pairs = append(pairs, Pair{Symbol: r, Letter: m.toLetter[r]})
	}
	return pairs
}

// Normalized is the result of Transform.
type Normalized struct {
	Text     string // A-Z only
	Special  SpecialMap
	Anchors  []Anchor
	Unmapped []rune // specials left over once the unused letters ran out
}

func isUpperLetter(r rune) bool { return 'A' <= r && r <= 'Z' }

// Transform records anchor positions, upper-cases the rest, assigns every
// non-letter symbol an unused letter and strips whatever is left outside A-Z.
// Specials are paired with unused letters in order of first occurrence so
// the mapping is reproducible.
func Transform(ciphertext, anchorChars string) Normalized {
	anchorSet := make(map[rune]bool, len(anchorChars))
	for _, r := range anchorChars {
		anchorSet[r] = true
	}

	n := Normalized{Special: newSpecialMap()}
	runes := make([]rune, 0, len(ciphertext))
	var usedEnglish [26]bool
	seen := make(map[rune]bool)
	var specials []rune

	idx := 0
	for _, r := range ciphertext {
		if anchorSet[r] {
			n.Anchors = append(n.Anchors, Anchor{Index: idx, Char: r})
			idx++
			continue
		}
		idx++
		u := unicode.ToUpper(r)
		runes = append(runes, u)
		if seen[u] {
			continue
		}
		seen[u] = true
		if isUpperLetter(u) {
			usedEnglish[u-'A'] = true
		} else {
			specials = append(specials, u)
		}
	}

	var unused []byte
	for i := 0; i < 26; i++ {
		if !usedEnglish[i] {
			unused = append(unused, byte('A'+i))
		}
	}

	for i, sym := range specials {
		if i >= len(unused) {
			n.Unmapped = append(n.Unmapped, specials[i:]...)
			break
		}
		n.Special.add(sym, unused[i])
		n.Special.order = append(n.Special.order, sym)
	}

	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		if isUpperLetter(r) {
			b.WriteRune(r)
		} else if l, ok := n.Special.Encode(r); ok {
			b.WriteByte(l)
		}
	}
	n.Text = b.String()
	return n
}

// RestoreAnchors inserts every anchor at its recorded offset, lowest offset
// first. An offset past the end appends.
func RestoreAnchors(text string, anchors []Anchor) string {
	if len(anchors) == 0 {
		return text
	}
	sorted := make([]Anchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := []rune(text)
	for _, a := range sorted {
		pos := a.Index
		if pos > len(out) {
			pos = len(out)
		}
		if pos < 0 {
			pos = 0
		}
		out = append(out, 0)
		copy(out[pos+1:], out[pos:])
		out[pos] = a.Char
	}
	return string(out)
}

// OriginalKey re-expresses a key (or any letter string) in the symbols of the
// original ciphertext. Letters that stand in for nothing pass through.
func OriginalKey(key string, m SpecialMap) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		if r, ok := m.Decode(key[i]); ok {
			b.WriteRune(r)
		} else {
			b.WriteByte(key[i])
		}
	}
	return b.String()
}
