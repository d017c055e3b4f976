// Package render turns parsed transcript blocks into Markdown
package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

var (
	bareTime        = regexp.MustCompile(`^\s*\d{1,2}[:.：]\d{2}(?:[:.：]\d{2})?\s*$`)
	dateTime        = regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日\d{1,2}[:.：]\d{2}`)
	fullDate        = regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`)
	bracketDate     = regexp.MustCompile(`^\s*\[\d{4}年\d{1,2}月\d{1,2}日\d{1,2}(?:[:：][0-9]{2})?\]?\s*$`)
	shortYear       = regexp.MustCompile(`^\s*\d{4}年\d{1,2}\s*$`)
	fourDigits      = regexp.MustCompile(`\d{4}`)
	clockFragment   = regexp.MustCompile(`\d{1,2}[:.：]\d{2}`)
	internalPattern = []*regexp.Regexp{
		regexp.MustCompile(`当前段落(内容)?(为空|无内容)，无需(优化|修改)`),
		regexp.MustCompile(`\[空段落，?无需优化\]`),
		regexp.MustCompile(`\[空\]`),
		regexp.MustCompile(`\[无内容\]`),
		regexp.MustCompile(`\[无内容可优化\]`),
		regexp.MustCompile(`^\s*\[\d{2}:\d{2}:\d{2}\]\s*$`),
		regexp.MustCompile(`^\s*\[\d{2}:\d{2}\]\s*$`),
		regexp.MustCompile(`^(?:当前段落|前文|后文).*?[:：]`),
		regexp.MustCompile(`^好的[，,]我将.*?处理`),
	}
	internalPhrases = []string{"当前段落", "无需优化", "无需修改", "内容为空", "前文：", "后文：", "段落内容"}
)

// IsLikelyTimestamp reports whether text looks like a time or date rather
// than a speaker name
func IsLikelyTimestamp(text string) bool {
	if text == "" {
		return false
	}
	if bareTime.MatchString(text) || dateTime.MatchString(text) || fullDate.MatchString(text) ||
		bracketDate.MatchString(text) || shortYear.MatchString(text) {
		return true
	}

	hasYear := strings.Contains(text, "年") || fourDigits.MatchString(text)
	hasMonth := strings.Contains(text, "月")
	hasDay := strings.Contains(text, "日") || strings.Contains(text, "号")
	hasTime := clockFragment.MatchString(text)
	return (hasYear && hasMonth) || (hasMonth && hasDay) || (hasDay && hasTime)
}

// IsInternalMessage reports whether text is a processing note rather than
// transcript content
func IsInternalMessage(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range internalPattern {
		if re.MatchString(text) {
			return true
		}
	}
	if utf8.RuneCountInString(text) < 50 {
		for _, p := range internalPhrases {
			if strings.Contains(text, p) {
				return true
			}
		}
	}
	return false
}

// Markdown renders blocks as a quoted transcript with one heading per turn.
// Blocks with empty content, processing notes, or timestamp-like speakers are skipped.
func Markdown(blocks []types.Block, title string) string {
	var lines []string
	if title != "" {
		lines = append(lines, "# "+title+"\n")
	}

	for _, b := range blocks {
		content := strings.TrimSpace(blockText(b))
		speaker := strings.TrimSpace(b.Speaker)
		if content == "" || IsInternalMessage(content) || IsLikelyTimestamp(speaker) {
			continue
		}

		if header := heading(speaker, b.Timestamp); header != "" {
			lines = append(lines, "### "+header, "")
		}
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) == "" {
				lines = append(lines, ">")
			} else {
				lines = append(lines, "> "+line)
			}
		}
		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// blockText prefers processed text when present
func blockText(b types.Block) string {
	if strings.TrimSpace(b.Processed) != "" {
		return b.Processed
	}
	return b.Content
}

func heading(speaker, timestamp string) string {
	var header string
	switch {
	case speaker != "" && timestamp != "":
		header = fmt.Sprintf("%s [%s]", speaker, timestamp)
	case speaker != "":
		header = speaker
	case timestamp != "":
		header = fmt.Sprintf("[%s]", timestamp)
	}
	if header != "" && IsLikelyTimestamp(strings.Trim(header, "[]")) {
		return ""
	}
	return header
}
