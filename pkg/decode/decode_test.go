package decode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode builds the forward substitution for a mode, the inverse of what
// Decode undoes. Characters without a table slot are left alone.
func encode(s string, mode int) string {
	forward := make(map[rune]rune, len(tables[mode]))
	for bias, r := range tables[mode] {
		if r != '?' {
			forward[r] = codeRanges[mode][0] + rune(bias)
		}
	}
	var b strings.Builder
	for _, r := range s {
		if obf, ok := forward[r]; ok {
			b.WriteRune(obf)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestDecodeRoundTrip(t *testing.T) {
	for mode := 0; mode <= 1; mode++ {
		// Every character the table covers must survive encode+decode.
		var covered strings.Builder
		for _, r := range tables[mode] {
			if r != '?' {
				covered.WriteRune(r)
			}
		}
		original := covered.String()

		obfuscated := encode(original, mode)
		require.NotEqual(t, original, obfuscated)

		decoded, err := Decode(obfuscated, mode)
		require.NoError(t, err, "mode %d", mode)
		assert.Equal(t, original, decoded, "mode %d", mode)
	}
}

func TestDecodePassthrough(t *testing.T) {
	// Characters outside both ranges are untouched.
	plain := "Chapter 1: plain ASCII text\nwith newlines"
	for mode := 0; mode <= 1; mode++ {
		decoded, err := Decode(plain, mode)
		require.NoError(t, err)
		assert.Equal(t, plain, decoded)
	}
}

func TestDecodeMixedContent(t *testing.T) {
	original := "前情提要：" + string(tables[0][10]) + string(tables[0][20])
	obfuscated := encode(original, 0)

	decoded, err := Decode(obfuscated, 0)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeBadCharset(t *testing.T) {
	// Find an unknown slot and feed its obfuscated code point.
	for mode := 0; mode <= 1; mode++ {
		bias := -1
		for i, r := range tables[mode] {
			if r == '?' {
				bias = i
				break
			}
		}
		require.GreaterOrEqual(t, bias, 0, "charset should carry unknown slots")

		_, err := Decode(string(codeRanges[mode][0]+rune(bias)), mode)
		assert.ErrorIs(t, err, ErrBadCharset)
	}
}

func TestDecodeInvalidMode(t *testing.T) {
	_, err := Decode("anything", 2)
	assert.Error(t, err)
	_, err = Decode("anything", -1)
	assert.Error(t, err)
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs become newlines",
			in:   "<p>first line</p><p>second line</p>",
			want: "first line\nsecond line",
		},
		{
			name: "tags dropped, inline text kept",
			in:   `<div class="x"><p>hello <b>bold</b> world</p></div>`,
			want: "hello bold world",
		},
		{
			name: "bare text passes through",
			in:   "no markup at all",
			want: "no markup at all",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestStripMarkupNeverFails(t *testing.T) {
	// Arbitrary malformed markup must still come back as a string.
	inputs := []string{
		"<<<<>>>>",
		"<p><p><p>",
		"unclosed <div",
		"> stray close",
		strings.Repeat("<", 1000),
		"text with \x00 control bytes <p>and tags",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _ = StripMarkup(in) })
	}
}

func TestStripMarkupCollapsesNewlines(t *testing.T) {
	got := StripMarkup("<p></p><p></p><p>only line</p>")
	assert.Equal(t, "only line", got)
	assert.NotContains(t, StripMarkup("<p>a</p><p></p><p>b</p>"), "\n\n")
}
