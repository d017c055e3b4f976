package chunking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// ErrCoverage indicates chunk metadata that does not tile the turn sequence
var ErrCoverage = errors.New("chunk metadata does not cover turns")

// ValidateCoverage checks that headered chunk ranges cover turns [0, turnsCount)
// exactly once, in increasing order. Fallback metadata (nil turn indices) is
// accepted only when turnsCount is zero.
func ValidateCoverage(meta []types.ChunkMeta, turnsCount int) error {
	if turnsCount == 0 {
		for i, m := range meta {
			if m.FromTurnIndex != nil || m.ToTurnIndex != nil {
				return fmt.Errorf("%w: chunk %d has a turn range but there are no turns", ErrCoverage, i)
			}
		}
		return nil
	}

	next := 0
	for i, m := range meta {
		if m.FromTurnIndex == nil || m.ToTurnIndex == nil {
			return fmt.Errorf("%w: chunk %d has no turn range", ErrCoverage, i)
		}
		from, to := *m.FromTurnIndex, *m.ToTurnIndex
		if from != next {
			return fmt.Errorf("%w: chunk %d starts at turn %d, expected %d", ErrCoverage, i, from, next)
		}
		if to < from {
			return fmt.Errorf("%w: chunk %d ends before it starts (%d < %d)", ErrCoverage, i, to, from)
		}
		if m.TurnsCount != nil && *m.TurnsCount != to-from+1 {
			return fmt.Errorf("%w: chunk %d reports %d turns for range [%d, %d]", ErrCoverage, i, *m.TurnsCount, from, to)
		}
		next = to + 1
	}
	if next != turnsCount {
		return fmt.Errorf("%w: ranges end at turn %d of %d", ErrCoverage, next, turnsCount)
	}
	return nil
}

// Reassemble joins per-chunk outputs (for example, rewritten chunk text) back
// into document order using the chunk metadata. outputs[i] belongs to meta[i].
func Reassemble(meta []types.ChunkMeta, outputs []string) (string, error) {
	if len(meta) != len(outputs) {
		return "", fmt.Errorf("got %d outputs for %d chunks", len(outputs), len(meta))
	}

	order := make([]int, len(meta))
	for i := range order {
		order[i] = i
	}

	headered := len(meta) > 0 && meta[0].FromTurnIndex != nil
	turns := 0
	if headered {
		sort.SliceStable(order, func(a, b int) bool {
			return fromIndex(meta[order[a]]) < fromIndex(meta[order[b]])
		})
		sorted := make([]types.ChunkMeta, len(meta))
		for i, idx := range order {
			sorted[i] = meta[idx]
		}
		if last := sorted[len(sorted)-1].ToTurnIndex; last != nil {
			turns = *last + 1
		}
		if err := ValidateCoverage(sorted, turns); err != nil {
			return "", err
		}
	} else if err := ValidateCoverage(meta, 0); err != nil {
		return "", err
	}

	parts := make([]string, len(order))
	for i, idx := range order {
		parts[i] = outputs[idx]
	}
	return strings.Join(parts, "\n"), nil
}

func fromIndex(m types.ChunkMeta) int {
	if m.FromTurnIndex == nil {
		return -1
	}
	return *m.FromTurnIndex
}
