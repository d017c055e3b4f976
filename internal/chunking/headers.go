package chunking

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// Header grammars. The name class admits CJK ideographs, Latin letters, digits,
// whitespace and a few punctuation marks; the name-only class is narrower and
// has no digits or whitespace. Whitespace includes the ideographic space.
const (
	space         = `[\s\p{Zs}]`
	nameClass     = `[\x{4e00}-\x{9fff}A-Za-z0-9_.·\-（）()“”'"\s\p{Zs}]`
	clockTime     = `\d{1,2}:\d{2}(?::\d{2})?`
	nameOnlyClass = `[\x{4e00}-\x{9fff}A-Za-z·\-._（）()]`
)

var (
	// The rest follows the clock after a colon or plain whitespace.
	timeHeaderRe = regexp.MustCompile(
		`^` + space + `*(?P<name>` + nameClass + `{1,30})` + space + `+(?P<time>` + clockTime + `)` +
			`(?:(?:` + space + `*[：:]` + space + `*|` + space + `+)(?P<rest>.*))?$`)
	inlineHeaderRe = regexp.MustCompile(
		`^` + space + `*(?P<name>` + nameClass + `{1,30})(?:` + space + `*\[(?P<time>` + clockTime + `)\])?` +
			space + `*[：:]` + space + `*(?P<rest>.+)$`)
	nameOnlyRe = regexp.MustCompile(`^` + nameOnlyClass + `{1,20}$`)
)

const nameOnlyPunct = "。！？!?,，；;：:…"

// DetectHeaders classifies lines as turn headers. Pass one applies the time
// grammar, then the inline grammar, to every non-blank line. Pass two applies
// the name-only heuristic to unclaimed lines when allowNameOnly is set.
// Results are ordered by line index.
func DetectHeaders(lines []string, allowNameOnly bool) []types.HeaderCandidate {
	claimed := make([]*types.HeaderCandidate, len(lines))
	count := 0

	for i, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if h, ok := matchTimeHeader(s); ok {
			h.LineIndex = i
			claimed[i] = &h
			count++
			continue
		}
		if h, ok := matchInlineHeader(s); ok {
			h.LineIndex = i
			claimed[i] = &h
			count++
		}
	}

	if allowNameOnly {
		for i := range lines {
			if claimed[i] != nil {
				continue
			}
			if name, ok := nameOnlyHeader(lines, i); ok {
				claimed[i] = &types.HeaderCandidate{
					LineIndex: i,
					Speaker:   name,
					Kind:      types.KindNameOnlyHeader,
				}
				count++
			}
		}
	}

	headers := make([]types.HeaderCandidate, 0, count)
	for _, h := range claimed {
		if h != nil {
			headers = append(headers, *h)
		}
	}
	return headers
}

// matchTimeHeader matches "name H:MM[:SS]" with optional colon and inline content
func matchTimeHeader(s string) (types.HeaderCandidate, bool) {
	m := timeHeaderRe.FindStringSubmatch(s)
	if m == nil {
		return types.HeaderCandidate{}, false
	}
	name := strings.TrimSpace(m[timeHeaderRe.SubexpIndex("name")])
	if name == "" {
		return types.HeaderCandidate{}, false
	}
	h := types.HeaderCandidate{
		Speaker: name,
		Time:    m[timeHeaderRe.SubexpIndex("time")],
		Kind:    types.KindTimeHeader,
	}
	if rest := strings.TrimSpace(m[timeHeaderRe.SubexpIndex("rest")]); rest != "" {
		h.Kind = types.KindTimeHeaderInline
		h.InlineRest = rest
	}
	return h, true
}

// matchInlineHeader matches "name[ [H:MM]]: content"
func matchInlineHeader(s string) (types.HeaderCandidate, bool) {
	m := inlineHeaderRe.FindStringSubmatch(s)
	if m == nil {
		return types.HeaderCandidate{}, false
	}
	name := strings.TrimSpace(m[inlineHeaderRe.SubexpIndex("name")])
	rest := strings.TrimSpace(m[inlineHeaderRe.SubexpIndex("rest")])
	if name == "" || rest == "" {
		return types.HeaderCandidate{}, false
	}
	return types.HeaderCandidate{
		Speaker:    name,
		Time:       m[inlineHeaderRe.SubexpIndex("time")],
		Kind:       types.KindInlineHeader,
		InlineRest: rest,
	}, true
}

// nameOnlyHeader reports whether lines[i] is a lone speaker name: preceded by a
// blank line (or the start of text) and followed by a substantive content line.
func nameOnlyHeader(lines []string, i int) (string, bool) {
	s := strings.TrimSpace(lines[i])
	n := runeLen(s)
	if n < 1 || n > 20 {
		return "", false
	}
	if strings.ContainsAny(s, nameOnlyPunct) || strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		return "", false
	}
	if !nameOnlyRe.MatchString(s) {
		return "", false
	}
	if i > 0 && !isBlank(lines[i-1]) {
		return "", false
	}
	if i+1 >= len(lines) {
		return "", false
	}
	next := strings.TrimSpace(lines[i+1])
	if next == "" || runeLen(next) < 3 || timeHeaderRe.MatchString(next) {
		return "", false
	}
	return s, true
}
