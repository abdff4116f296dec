// Package decode reverses the character substitution fanqienovel.com applies
// to chapter bodies. The site swaps common glyphs for private-use-area code
// points; which of the two substitution tables is active alternates per
// chapter, so callers try mode 0 first and fall back to mode 1.
package decode

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

//go:embed charset.json
var charsetFS embed.FS

// Code point ranges used by the obfuscation, one per mode.
var codeRanges = [2][2]rune{
	{58344, 58715},
	{58345, 58716},
}

// ErrBadCharset is returned when an in-range character has no valid entry in
// the charset table for the requested mode. It signals a mode mismatch, not
// corrupt input.
var ErrBadCharset = errors.New("decode: character not covered by charset table")

var tables [2][]rune

func init() {
	raw, err := charsetFS.ReadFile("charset.json")
	if err != nil {
		panic(fmt.Sprintf("decode: missing embedded charset: %v", err))
	}
	var charset [2][]string
	if err := json.Unmarshal(raw, &charset); err != nil {
		panic(fmt.Sprintf("decode: bad embedded charset: %v", err))
	}
	for mode, entries := range charset {
		tables[mode] = make([]rune, len(entries))
		for i, s := range entries {
			r := []rune(s)
			tables[mode][i] = r[0]
		}
	}
}

// Decode maps obfuscated code points back to their original characters using
// the table for the given mode. Characters outside the mode's range pass
// through unchanged. An in-range character whose table slot is unknown yields
// ErrBadCharset, which means the other mode (or StripMarkup) should be tried.
func Decode(raw string, mode int) (string, error) {
	if mode < 0 || mode > 1 {
		return "", fmt.Errorf("decode: invalid mode %d", mode)
	}

	lo, hi := codeRanges[mode][0], codeRanges[mode][1]
	table := tables[mode]

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < lo || r > hi {
			b.WriteRune(r)
			continue
		}
		bias := int(r - lo)
		if bias >= len(table) || table[bias] == '?' {
			return "", fmt.Errorf("%w: U+%04X (mode %d)", ErrBadCharset, r, mode)
		}
		b.WriteRune(table[bias])
	}
	return b.String(), nil
}

// StripMarkup recovers best-effort plain text from raw chapter markup when
// neither charset mode validates. It tracks angle-bracket nesting depth,
// keeps text outside tags, and turns paragraph tags into single newlines.
// It never fails; worst case is an empty string.
func StripMarkup(raw string) string {
	var b strings.Builder
	depth := 0
	lastNewline := true
	for _, r := range raw {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth <= 0:
			b.WriteRune(r)
			lastNewline = r == '\n'
		case depth == 1 && r == 'p':
			// Tag-name position inside a paragraph tag marks a break.
			if !lastNewline {
				b.WriteRune('\n')
				lastNewline = true
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
