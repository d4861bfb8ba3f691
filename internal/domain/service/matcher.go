package service

import "strings"

// DefaultLexicon lists the public records law phrases a paragraph must
// contain to be excerpted. Comparison happens in lowercase, so no uppercase
// letters here.
var DefaultLexicon = []string{
	"f.o.i.a.",
	"foia",
	"freedom of information act",
	"freedom of information law",
	"records request",
	"open records",
	"public records act",
	"public records law",
}

// PhraseMatcher scans plaintext for lexicon phrases. It is a pure value:
// no I/O, deterministic for a given lexicon and input.
type PhraseMatcher struct {
	lexicon []string
}

// NewPhraseMatcher creates a matcher over the given phrase list, falling
// back to DefaultLexicon when the list is empty.
func NewPhraseMatcher(lexicon []string) *PhraseMatcher {
	if len(lexicon) == 0 {
		lexicon = DefaultLexicon
	}
	return &PhraseMatcher{lexicon: lexicon}
}

// Match splits plaintext into paragraphs on newlines and returns every
// paragraph containing any lexicon phrase, case-insensitively, in original
// order and with original casing. Repeated paragraphs are not deduplicated.
func (m *PhraseMatcher) Match(plaintext string) []string {
	var matches []string

	for _, graf := range strings.Split(plaintext, "\n") {
		lower := strings.ToLower(graf)
		for _, phrase := range m.lexicon {
			if strings.Contains(lower, phrase) {
				matches = append(matches, graf)
				break
			}
		}
	}

	return matches
}
