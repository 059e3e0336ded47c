package vector

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 200
)

// SplitText cuts text into chunks of at most size runes, consecutive chunks
// sharing overlap runes. Cuts prefer whitespace in the second half of a window.
func SplitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if size <= 0 {
		size = DefaultChunkSize
	}

	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > size/2 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}

		start = next
	}

	return chunks
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	return -1
}
