// Package jsonx extracts the first JSON value embedded in free-form model
// output. Language models routinely wrap their JSON in prose or markdown
// fences, so callers must never assume a response is bare JSON; this package
// is the single best-effort extraction point for all of them.
package jsonx

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when the input contains no decodable JSON value
// of the requested shape.
var ErrNotFound = errors.New("no JSON value found")

// FirstObject finds the first balanced {...} substring in s that decodes as
// JSON and unmarshals it into v.
func FirstObject(s string, v any) error {
	return first(s, '{', '}', v)
}

// FirstArray finds the first balanced [...] substring in s that decodes as
// JSON and unmarshals it into v.
func FirstArray(s string, v any) error {
	return first(s, '[', ']', v)
}

func first(s string, open, closer byte, v any) error {
	for start := 0; start < len(s); start++ {
		if s[start] != open {
			continue
		}
		end, ok := matchDelimiter(s, start, open, closer)
		if !ok {
			// No balanced close for this opener; later openers are
			// nested inside it, so nothing further can balance either.
			break
		}
		candidate := s[start : end+1]
		if json.Unmarshal([]byte(candidate), v) == nil {
			return nil
		}
		// Candidate was balanced but not valid JSON (e.g. a code
		// snippet); keep scanning past it.
		start = end
	}
	return ErrNotFound
}

// matchDelimiter returns the index of the delimiter closing the one at
// start, tracking nesting and skipping string literals.
func matchDelimiter(s string, start int, open, closer byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
