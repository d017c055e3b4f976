// Package sqlite provides column encoding helpers for SQLite storage
package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// nullInt maps an optional int to a nullable column value
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// intPtr maps a nullable column back to an optional int
func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// encodeStrings stores a string list as a JSON array; nil becomes "[]"
func encodeStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	return string(b), err
}

// decodeStrings reads a JSON array column, tolerating NULL and bad data
func decodeStrings(s sql.NullString) []string {
	list := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &list)
	}
	return list
}

func encodeOptions(o types.SegmentOptions) (string, error) {
	b, err := json.Marshal(o)
	return string(b), err
}

func decodeOptions(s sql.NullString) types.SegmentOptions {
	var o types.SegmentOptions
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &o)
	}
	return o
}
