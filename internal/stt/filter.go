package stt

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultFillerWords contains common English filler words stripped from
// transcripts before they reach the dialogue engine.
var DefaultFillerWords = []string{
	"um", "uh", "uhh", "umm",
	"er", "ah", "hmm", "mm",
	"you know", "basically", "literally",
}

// Filter removes filler words and noise from capture transcripts.
type Filter struct {
	mu      sync.RWMutex
	words   map[string]struct{}
	pattern *regexp.Regexp
}

// NewFilter creates a filter with the given filler words.
// If words is nil, DefaultFillerWords is used.
func NewFilter(words []string) *Filter {
	if words == nil {
		words = DefaultFillerWords
	}

	f := &Filter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		f.words[strings.ToLower(w)] = struct{}{}
	}
	f.rebuild()
	return f
}

func (f *Filter) rebuild() {
	if len(f.words) == 0 {
		f.pattern = nil
		return
	}

	patterns := make([]string, 0, len(f.words))
	for w := range f.words {
		patterns = append(patterns, `\b`+regexp.QuoteMeta(w)+`\b`)
	}
	f.pattern = regexp.MustCompile(`(?i)(` + strings.Join(patterns, "|") + `)`)
}

// Clean strips filler words and collapses whitespace. The second return is
// false when nothing meaningful remains.
func (f *Filter) Clean(text string) (string, bool) {
	f.mu.RLock()
	pattern := f.pattern
	f.mu.RUnlock()

	cleaned := text
	if pattern != nil {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return cleaned, cleaned != ""
}

// Words returns the configured filler words.
func (f *Filter) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	words := make([]string, 0, len(f.words))
	for w := range f.words {
		words = append(words, w)
	}
	return words
}

// AddWord adds a filler word at runtime.
func (f *Filter) AddWord(word string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[strings.ToLower(word)] = struct{}{}
	f.rebuild()
}
