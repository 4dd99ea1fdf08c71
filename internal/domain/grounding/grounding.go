// Package grounding checks that skill names are substantiated by retrieved text.
package grounding

import (
	"strings"
	"unicode"
)

// minTokenLen skips noise tokens such as "a" or the "c" of "C++".
const minTokenLen = 2

// minStemLen keeps inflection folding from reducing "os" to "o".
const minStemLen = 3

// Index is a case-folded view over a body of reference text.
type Index struct {
	text string
}

// NewIndex builds an index over the given texts.
func NewIndex(texts ...string) Index {
	return Index{text: strings.ToLower(strings.Join(texts, "\n"))}
}

// Empty reports whether there is nothing to ground against.
func (i Index) Empty() bool { return strings.TrimSpace(i.text) == "" }

// Contains reports whether skill is substantiated by the text: either the
// whole phrase occurs, or every significant token of it does. A plural token
// also matches its singular, so "Databases" is grounded by "database".
func (i Index) Contains(skill string) bool {
	phrase := strings.ToLower(strings.TrimSpace(skill))
	if phrase == "" || i.Empty() {
		return false
	}
	if strings.Contains(i.text, phrase) {
		return true
	}
	tokens := Tokens(phrase)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !i.containsToken(t) {
			return false
		}
	}
	return true
}

func (i Index) containsToken(t string) bool {
	for _, form := range Singulars(t) {
		if strings.Contains(i.text, form) {
			return true
		}
	}
	return false
}

// Singulars returns token followed by the forms left after folding a plural
// suffix: "queries" gives "query", "classes" gives "class", "apis" gives "api".
func Singulars(token string) []string {
	forms := []string{token}
	add := func(stem string) {
		if len([]rune(stem)) >= minStemLen {
			forms = append(forms, stem)
		}
	}
	switch {
	case strings.HasSuffix(token, "ies"):
		add(strings.TrimSuffix(token, "ies") + "y")
	case strings.HasSuffix(token, "ss"):
	case strings.HasSuffix(token, "es"):
		add(strings.TrimSuffix(token, "es"))
		add(strings.TrimSuffix(token, "s"))
	case strings.HasSuffix(token, "s"):
		add(strings.TrimSuffix(token, "s"))
	}
	return forms
}

// Tokens splits text into lower-case words of at least two runes.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}
