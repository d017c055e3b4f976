package chunking

import (
	"strings"

	"github.com/google/uuid"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// newBlockID generates block identifiers
var newBlockID = uuid.NewString

// BuildTurns carves lines into turns, one per header. A turn owns the lines
// after its header up to the next header or the end of text.
func BuildTurns(lines []string, headers []types.HeaderCandidate) []types.Turn {
	if len(headers) == 0 {
		return nil
	}

	turns := make([]types.Turn, 0, len(headers))
	for idx, h := range headers {
		end := len(lines) - 1
		if idx+1 < len(headers) {
			end = headers[idx+1].LineIndex - 1
		}

		body := strings.TrimRight(strings.Join(lines[h.LineIndex+1:end+1], "\n"), "\n")
		headerLine := strings.TrimSpace(lines[h.LineIndex])
		block := headerLine
		if body != "" {
			block += "\n" + body
		}

		content := body
		if h.Kind.IsInline() {
			content = h.InlineRest
			if body != "" {
				content += "\n" + body
			}
		}

		turns = append(turns, types.Turn{
			Index:      idx,
			Speaker:    h.Speaker,
			Time:       h.Time,
			Kind:       h.Kind,
			HeaderLine: headerLine,
			Content:    content,
			BlockText:  block,
			CharCount:  runeLen(block),
		})
	}
	return turns
}

// Preamble returns the trimmed text preceding the first header
func Preamble(lines []string, headers []types.HeaderCandidate) string {
	if len(headers) == 0 || headers[0].LineIndex == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[:headers[0].LineIndex], "\n"))
}

// ParseBlocks converts text into speaker/content blocks. Inline headers
// contribute their same-line text as the first content line, and following
// lines are kept verbatim. Blocks with no content are dropped. Text without
// any header becomes a single speakerless block.
func ParseBlocks(text string, allowNameOnly bool) []types.Block {
	text = NormalizeText(text)
	if isBlank(text) {
		return []types.Block{}
	}

	lines := SplitLines(text)
	headers := DetectHeaders(lines, allowNameOnly)
	if len(headers) == 0 {
		return []types.Block{{
			ID:      newBlockID(),
			Content: strings.TrimSpace(strings.Join(lines, "\n")),
		}}
	}

	blocks := make([]types.Block, 0, len(headers))
	for _, t := range BuildTurns(lines, headers) {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		blocks = append(blocks, types.Block{
			ID:        newBlockID(),
			Speaker:   t.Speaker,
			Timestamp: t.Time,
			Content:   content,
		})
	}
	return blocks
}

// BlockSpeakers returns the distinct non-empty block speakers in order
func BlockSpeakers(blocks []types.Block) []string {
	seen := make(map[string]bool)
	speakers := []string{}
	for _, b := range blocks {
		if b.Speaker == "" || seen[b.Speaker] {
			continue
		}
		seen[b.Speaker] = true
		speakers = append(speakers, b.Speaker)
	}
	return speakers
}
