package search

import (
	"fmt"
	"math/rand/v2"
)

// Key is a permutation of A-Z. Key[i] is the ciphertext letter that decodes to
// plaintext letter 'A'+i.
type Key [26]byte

// Identity returns ABCDEFGHIJKLMNOPQRSTUVWXYZ.
func Identity() Key {
	var k Key
	for i := range k {
		k[i] = byte('A' + i)
	}
	return k
}

// RandomKey draws a uniformly random permutation.
func RandomKey(r *rand.Rand) Key {
	k := Identity()
	r.Shuffle(len(k), func(i, j int) { k[i], k[j] = k[j], k[i] })
	return k
}

// ParseKey reads a 26-letter permutation such as the output of Key.String.
func ParseKey(s string) (Key, error) {
	var k Key
	if len(s) != len(k) {
		return k, fmt.Errorf("key %q has %d letters, want 26", s, len(s))
	}
	var seen [26]bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return k, fmt.Errorf("key %q: invalid letter %q", s, c)
		}
		if seen[c-'A'] {
			return k, fmt.Errorf("key %q: letter %c repeated", s, c)
		}
		seen[c-'A'] = true
		k[i] = c
	}
	return k, nil
}

func (k Key) String() string { return string(k[:]) }

func (k *Key) Swap(a, b int) { k[a], k[b] = k[b], k[a] }

// inverse maps ciphertext letter to plaintext letter.
func (k Key) inverse() [26]byte {
	var inv [26]byte
	for i, c := range k {
		inv[c-'A'] = byte('A' + i)
	}
	return inv
}

// Decode replaces every ciphertext letter with the plaintext letter it stands
// for under k. Anything outside A-Z passes through.
func Decode(text string, k Key) string {
	buf := make([]byte, len(text))
	decodeInto(buf, text, k.inverse())
	return string(buf)
}

func decodeInto(dst []byte, text string, inv [26]byte) {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if 'A' <= c && c <= 'Z' {
			dst[i] = inv[c-'A']
		} else {
			dst[i] = c
		}
	}
}

// Encode is the inverse of Decode: Decode(Encode(p, k), k) == p.
func Encode(plain string, k Key) string {
	buf := make([]byte, len(plain))
	for i := 0; i < len(plain); i++ {
		c := plain[i]
		if 'A' <= c && c <= 'Z' {
			buf[i] = k[c-'A']
		} else {
			buf[i] = c
		}
	}
	return string(buf)
}
