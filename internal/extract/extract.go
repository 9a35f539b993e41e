// Package extract pulls plain text out of the supported document formats.
// Each format has its own extractor; a failure in one format never affects
// another, and callers treat ErrNoText as "summarize from the filename
// instead" rather than as a fault.
package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoText means the file yielded no usable text. Legacy formats (doc,
// xls, ppt) always report this; modern formats report it when extraction
// succeeds but the document is empty.
var ErrNoText = errors.New("no usable text")

type extractFunc func(path string) (string, error)

// extractors maps normalized extensions (no dot) to their extractor.
var extractors = map[string]extractFunc{
	"txt":  extractPlain,
	"md":   extractPlain,
	"csv":  extractPlain,
	"pdf":  extractPDF,
	"docx": extractDocx,
	"xlsx": extractXlsx,
	"pptx": extractPptx,
	// Legacy binary formats: recognized but not parsed.
	"doc": extractNone,
	"xls": extractNone,
	"ppt": extractNone,
}

// Text extracts plain text from the file at path, dispatching on ext
// (without a leading dot, case-insensitive). Unknown extensions report
// ErrNoText like the legacy formats do.
func Text(path, ext string) (string, error) {
	fn, ok := extractors[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return "", ErrNoText
	}
	text, err := fn(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Supported reports whether ext has a real parser (not a legacy stub).
func Supported(ext string) bool {
	fn, ok := extractors[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok && fn != nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func extractNone(string) (string, error) {
	return "", ErrNoText
}
