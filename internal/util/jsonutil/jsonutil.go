package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject is returned when text contains no balanced {...} substring.
var ErrNoObject = errors.New("jsonutil: no JSON object found")

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
// Generated markup stays readable in responses and stored artifacts.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExtractObject returns the first balanced {...} substring of text.
//
// Braces inside JSON string literals (including escaped quotes) do not count
// toward nesting depth. When an opening brace never closes, the next opening
// brace is tried, so a stray "{" in leading prose does not hide a later
// object.
func ExtractObject(text string) (string, error) {
	bestStart, bestEnd := -1, -1
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		s, e, quoted := scanObjects(text, start)
		if s >= 0 && (bestStart < 0 || s < bestStart) {
			bestStart, bestEnd = s, e
		}
		// Braces that sat inside a string literal during this scan start
		// outside one when tried on their own, so they need a scan of their own.
		if quoted < 0 || (bestStart >= 0 && quoted > bestStart) {
			break
		}
		start = quoted
	}
	if bestStart < 0 {
		return "", ErrNoObject
	}
	return text[bestStart : bestEnd+1], nil
}

// scanObjects scans text from the brace at start, tracking every brace
// opened outside a string literal. It returns the earliest-opening balanced
// pair it closed (or -1, -1) and the first brace seen inside a string
// literal (or -1). A brace opened outside a string is in the same state as a
// scan started at it, so its match here is the match a dedicated scan would
// find.
func scanObjects(text string, start int) (objStart, objEnd, quoted int) {
	objStart, objEnd, quoted = -1, -1, -1
	var open []int
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c == '{' && quoted < 0:
				quoted = i
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			open = append(open, i)
		case '}':
			o := open[len(open)-1]
			open = open[:len(open)-1]
			if objStart < 0 || o < objStart {
				objStart, objEnd = o, i
			}
			if len(open) == 0 {
				return objStart, objEnd, quoted
			}
		}
	}
	return objStart, objEnd, quoted
}
