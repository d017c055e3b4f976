// Package rules applies deterministic clean-up rules to transcript text:
// punctuation normalization, filler-word removal and sentence tidying
package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// Fillers are spoken filler words removed when they stand alone
var Fillers = []string{"你知道的", "就是", "然后", "那个", "额", "啊", "嗯", "呃"}

var (
	punctReplacer = strings.NewReplacer(
		",", "，",
		";", "；",
		":", "：",
		"?", "？",
		"!", "！",
		"(", "（",
		")", "）",
	)
	dotRun       = regexp.MustCompile(`\.{2,}`)
	ellipsisRun  = regexp.MustCompile(`…{2,}`)
	spaceRun     = regexp.MustCompile(`\s+`)
	multiSpace   = regexp.MustCompile(`\s{2,}`)
	sentenceEnd  = regexp.MustCompile(`([。！？?!])\s+`)
	repeatedMark = []rune("！!？?。；;，,")
)

const terminalMarks = "。？！…!?"

// NormalizePunct converts common half-width punctuation to full-width and
// collapses ellipses and whitespace
func NormalizePunct(s string) string {
	s = dotRun.ReplaceAllString(s, "…")
	s = ellipsisRun.ReplaceAllString(s, "…")
	s = punctReplacer.Replace(s)
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// RemoveFillers deletes filler words that are not part of a longer word
func RemoveFillers(s string) string {
	runes := []rune(s)
	var out []rune
	for i := 0; i < len(runes); {
		if n := fillerAt(runes, i); n > 0 {
			i += n
			continue
		}
		out = append(out, runes[i])
		i++
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(string(out), " "))
}

// fillerAt returns the length of a standalone filler starting at i, or 0
func fillerAt(runes []rune, i int) int {
	if i > 0 && isWordRune(runes[i-1]) {
		return 0
	}
	for _, f := range Fillers {
		fr := []rune(f)
		end := i + len(fr)
		if end > len(runes) || string(runes[i:end]) != f {
			continue
		}
		if end < len(runes) && isWordRune(runes[end]) {
			continue
		}
		return len(fr)
	}
	return 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// OptimizeSentence collapses repeated punctuation and adds a full stop when
// the sentence has no terminal mark
func OptimizeSentence(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		if i > 0 && r == runes[i-1] && isRepeatable(r) {
			continue
		}
		out = append(out, r)
	}
	if len(out) > 0 && !strings.ContainsRune(terminalMarks, out[len(out)-1]) {
		out = append(out, '。')
	}
	return string(out)
}

func isRepeatable(r rune) bool {
	for _, m := range repeatedMark {
		if r == m {
			return true
		}
	}
	return false
}

// SplitSentences breaks text after a terminal mark followed by whitespace.
// Empty pieces are dropped.
func SplitSentences(s string) []string {
	var parts []string
	for _, p := range strings.Split(sentenceEnd.ReplaceAllString(s, "${1}\n"), "\n") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Process runs all rules over one piece of text. Each sentence is tidied on
// its own and the results are joined one per line.
func Process(s string) string {
	parts := SplitSentences(RemoveFillers(NormalizePunct(s)))
	for i, p := range parts {
		parts[i] = OptimizeSentence(p)
	}
	return strings.Join(parts, "\n")
}

// ProcessBlocks fills each block's Processed field from its Content
func ProcessBlocks(blocks []types.Block) []types.Block {
	out := make([]types.Block, len(blocks))
	for i, b := range blocks {
		b.Processed = Process(b.Content)
		out[i] = b
	}
	return out
}
