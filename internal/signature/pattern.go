// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package signature runs fixed byte-pattern matches (with wildcard bytes)
// against a mapped image buffer to discover the version string and the root
// pointer of the metaclass registry — the byte-pattern analogue of the
// teacher's own small hand-rolled byte search in richheader.go, generalized
// to wildcarded multi-byte patterns instead of a single literal needle.
package signature

// Pattern is a byte sequence with wildcard positions, kept as data rather
// than baked into matching code. FindClassesRoot scans only the two
// classes-root patterns defined in this package; it takes no caller-supplied
// patterns.
type Pattern struct {
	Name      string
	bytes     []byte
	wildcards []bool
}

// NewPattern compiles a pattern from a sequence of tokens: B(v) for a
// literal byte, or W() for a wildcard byte ("??").
func NewPattern(name string, tokens []Token) Pattern {
	p := Pattern{Name: name, bytes: make([]byte, len(tokens)), wildcards: make([]bool, len(tokens))}
	for i, t := range tokens {
		if t.Wildcard {
			p.wildcards[i] = true
			continue
		}
		p.bytes[i] = t.Value
	}
	return p
}

// Token is one position in a Pattern.
type Token struct {
	Value    byte
	Wildcard bool
}

// B returns a literal-byte token.
func B(v byte) Token { return Token{Value: v} }

// W returns a wildcard token ("??").
func W() Token { return Token{Wildcard: true} }

// Bytes builds a pattern from a plain byte slice, every byte a literal (no
// wildcards).
func Bytes(name string, lit []byte) Pattern {
	toks := make([]Token, len(lit))
	for i, b := range lit {
		toks[i] = B(b)
	}
	return NewPattern(name, toks)
}

// Len returns the pattern length in bytes.
func (p Pattern) Len() int { return len(p.bytes) }

// matchAt reports whether the pattern matches data at the given offset.
func (p Pattern) matchAt(data []byte, at int) bool {
	if at < 0 || at+len(p.bytes) > len(data) {
		return false
	}
	for i, want := range p.bytes {
		if p.wildcards[i] {
			continue
		}
		if data[at+i] != want {
			return false
		}
	}
	return true
}

// FindAll returns every offset in data where the pattern matches, in
// ascending order. Matching is O(n*m); patterns in this package are short and
// run once per dump, so no pre-processing (Boyer-Moore tables, etc.) is
// needed for the scan sizes involved.
func (p Pattern) FindAll(data []byte) []int {
	var hits []int
	if len(p.bytes) == 0 || len(p.bytes) > len(data) {
		return hits
	}
	for at := 0; at <= len(data)-len(p.bytes); at++ {
		if p.matchAt(data, at) {
			hits = append(hits, at)
		}
	}
	return hits
}

// FindFirst returns the first offset where the pattern matches, or -1.
func (p Pattern) FindFirst(data []byte) int {
	if len(p.bytes) == 0 || len(p.bytes) > len(data) {
		return -1
	}
	for at := 0; at <= len(data)-len(p.bytes); at++ {
		if p.matchAt(data, at) {
			return at
		}
	}
	return -1
}
