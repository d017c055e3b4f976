package chunking

import (
	"strings"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// packBuffer accumulates turn blocks for the chunk in progress
type packBuffer struct {
	blocks []string
	chars  int
	from   int
}

func (b *packBuffer) empty() bool {
	return len(b.blocks) == 0
}

func (b *packBuffer) add(block string, blen int) {
	if !b.empty() {
		b.chars++
	}
	b.blocks = append(b.blocks, block)
	b.chars += blen
}

func (b *packBuffer) reset(from int) {
	b.blocks = b.blocks[:0]
	b.chars = 0
	b.from = from
}

// Pack greedily groups turns into chunks. A chunk closes when the next turn
// would push it past target and it already holds minTurns turns. A turn that
// alone meets target while the buffer is empty becomes its own chunk, so
// target is a soft bound.
func Pack(turns []types.Turn, target, minTurns int) ([]string, []types.ChunkMeta) {
	if target <= 0 {
		target = DefaultTargetChunkChars
	}
	if minTurns < 1 {
		minTurns = 1
	}

	chunks := []string{}
	meta := []types.ChunkMeta{}
	emit := func(text string, from, to, count int) {
		chunks = append(chunks, text)
		meta = append(meta, types.ChunkMeta{
			FromTurnIndex: intPtr(from),
			ToTurnIndex:   intPtr(to),
			CharCount:     runeLen(text),
			TurnsCount:    intPtr(count),
		})
	}

	var buf packBuffer
	for i, t := range turns {
		blen := runeLen(t.BlockText)

		if buf.empty() && blen >= target {
			emit(t.BlockText, i, i, 1)
			buf.reset(i + 1)
			continue
		}

		if !buf.empty() && buf.chars+1+blen > target && len(buf.blocks) >= minTurns {
			emit(strings.Join(buf.blocks, "\n"), buf.from, i-1, len(buf.blocks))
			buf.reset(i)
		}
		buf.add(t.BlockText, blen)
	}

	if !buf.empty() {
		emit(strings.Join(buf.blocks, "\n"), buf.from, buf.from+len(buf.blocks)-1, len(buf.blocks))
	}
	return chunks, meta
}

func intPtr(v int) *int {
	return &v
}
