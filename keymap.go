package polysynth

import "strings"

// DefaultKeymap maps the home and upper letter rows to MIDI base notes.
// The sounding note is base + 12*octave, so A at octave 4 is middle C.
func DefaultKeymap() map[string]int {
	return map[string]int{
		"A": 12,
		"W": 13,
		"S": 14,
		"E": 15,
		"D": 16,
		"F": 17,
		"T": 18,
		"G": 19,
		"Y": 20,
		"H": 21,
		"U": 22,
		"J": 23,
		"K": 24,
		"O": 25,
		"L": 26,
		"P": 27,
		";": 28,
		"'": 29,
		"]": 30,
	}
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
