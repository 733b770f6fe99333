package core

import (
	"strconv"
	"strings"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// LookupByKey finds a sound by key.
// Returns nil if not found.
func LookupByKey(sounds []mixer.SoundState, key string) *mixer.SoundState {
	for i := range sounds {
		if sounds[i].Key == key {
			return &sounds[i]
		}
	}
	return nil
}

// LookupByIndex finds a sound by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(sounds []mixer.SoundState, index int) *mixer.SoundState {
	idx := index - 1
	if idx < 0 || idx >= len(sounds) {
		return nil
	}
	return &sounds[idx]
}

// Lookup resolves ref as a key first, then as a 1-based index.
func Lookup(sounds []mixer.SoundState, ref string) *mixer.SoundState {
	if s := LookupByKey(sounds, ref); s != nil {
		return s
	}
	if index, err := strconv.Atoi(ref); err == nil {
		return LookupByIndex(sounds, index)
	}
	return nil
}

// Search finds sounds whose key contains term, case-insensitively.
func Search(sounds []mixer.SoundState, term string) []mixer.SoundState {
	if term == "" {
		return sounds
	}

	term = strings.ToLower(term)
	var result []mixer.SoundState
	for _, s := range sounds {
		if strings.Contains(strings.ToLower(s.Key), term) {
			result = append(result, s)
		}
	}
	return result
}
