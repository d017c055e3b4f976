package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var underscoreRun = regexp.MustCompile(`_+`)

// NormalizeText prepares raw input for segmentation: invalid UTF-8 bytes
// become U+FFFD and line endings become \n.
func NormalizeText(text string) string {
	return NormalizeNewlines(strings.ToValidUTF8(text, string(utf8.RuneError)))
}

// NormalizeNewlines converts \r\n and lone \r line endings to \n
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines splits normalized text into lines with underscore runs removed
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = underscoreRun.ReplaceAllString(line, "")
	}
	return lines
}

// FallbackWindows slides a fixed-size character window over text.
// Sizes count characters, not bytes. The step is size minus the effective
// overlap, and always advances by at least one character. text must be valid
// UTF-8 (see NormalizeText) for the windows to reproduce it.
func FallbackWindows(text string, size, overlap int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultFallbackChunkChars
	}
	if overlap < 0 {
		overlap = 0
	}
	effective := min(overlap, max(size-1, 0))

	var windows []string
	start := 0
	for start < n {
		end := min(start+size, n)
		windows = append(windows, string(runes[start:end]))
		if end >= n {
			break
		}
		next := end - effective
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return windows
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
