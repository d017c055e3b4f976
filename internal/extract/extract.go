// Package extract converts uploaded transcript documents into plain text
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	// ErrUnsupportedFormat is returned for file types without a reader
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument is returned when a document yields no text
	ErrEmptyDocument = errors.New("no text extracted")
)

// Format names the kind of source document
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatDocx     Format = "docx"
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
)

// Document is the text extracted from one file
type Document struct {
	Name   string
	Format Format
	Text   string
}

var formatsByExt = map[string]Format{
	".txt":  FormatText,
	".md":   FormatMarkdown,
	".docx": FormatDocx,
	".pdf":  FormatPDF,
	".html": FormatHTML,
	".htm":  FormatHTML,
}

// FormatOf returns the document format for a file name
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := formatsByExt[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Extract reads text from an in-memory document, choosing a reader by the
// file name's extension
func Extract(name string, data []byte) (*Document, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var text string
	switch format {
	case FormatText, FormatMarkdown:
		text, err = decodeText(data)
	case FormatDocx:
		text, err = parseDocx(data)
	case FormatPDF:
		text, err = parsePDF(data)
	case FormatHTML:
		text, err = parseHTML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	return &Document{Name: filepath.Base(name), Format: format, Text: text}, nil
}

// ExtractFile reads and extracts a document from disk
func ExtractFile(path string) (*Document, error) {
	if _, err := FormatOf(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Extract(path, data)
}

// IsSupported checks if a file extension has a reader
func IsSupported(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// IsTemporary checks if a file is an editor or OS temporary file
func IsTemporary(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "~$") ||
		strings.HasPrefix(base, "._") ||
		strings.HasSuffix(base, ".tmp")
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText decodes UTF-8, falling back to GB18030 for legacy Chinese files
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("text is neither UTF-8 nor GB18030: %w", err)
	}
	return string(decoded), nil
}
