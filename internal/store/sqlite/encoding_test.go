package sqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

func TestNullInt(t *testing.T) {
	assert.False(t, nullInt(nil).Valid)

	v := 7
	n := nullInt(&v)
	assert.True(t, n.Valid)
	assert.Equal(t, int64(7), n.Int64)

	back := intPtr(n)
	require.NotNil(t, back)
	assert.Equal(t, 7, *back)
	assert.Nil(t, intPtr(sql.NullInt64{}))
}

func TestStringsColumn(t *testing.T) {
	s, err := encodeStrings(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = encodeStrings([]string{"张三", "李四"})
	require.NoError(t, err)
	assert.Equal(t, []string{"张三", "李四"}, decodeStrings(sql.NullString{String: s, Valid: true}))

	assert.Equal(t, []string{}, decodeStrings(sql.NullString{}))
	assert.Equal(t, []string{}, decodeStrings(sql.NullString{String: "not json", Valid: true}))
}

func TestOptionsColumn(t *testing.T) {
	target, overlap := 500, 0
	allow := false
	in := types.SegmentOptions{TargetChunkChars: &target, FallbackOverlapChars: &overlap, AllowNameOnlyHeader: &allow}

	s, err := encodeOptions(in)
	require.NoError(t, err)

	out := decodeOptions(sql.NullString{String: s, Valid: true})
	require.NotNil(t, out.TargetChunkChars)
	assert.Equal(t, 500, *out.TargetChunkChars)
	assert.Nil(t, out.MinTurnsPerChunk)
	require.NotNil(t, out.FallbackOverlapChars)
	assert.Equal(t, 0, *out.FallbackOverlapChars)
	require.NotNil(t, out.AllowNameOnlyHeader)
	assert.False(t, *out.AllowNameOnlyHeader)

	assert.Equal(t, types.SegmentOptions{}, decodeOptions(sql.NullString{}))
}
