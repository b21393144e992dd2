// Package textproc holds pure text transformations applied to OCR output
// before it is handed to the language model.
package textproc

import "strings"

// Trim cuts known boilerplate from OCR text. Markers are literal substrings
// that open non-transactional sections (legal footers, T&C blocks); they are
// applied in the order given, each truncating the working text at its first
// occurrence in whatever remains. Text without any marker is returned
// unchanged.
func Trim(text string, markers []string) string {
	if text == "" {
		return ""
	}

	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if idx := strings.Index(text, marker); idx >= 0 {
			text = text[:idx]
		}
	}

	return text
}
