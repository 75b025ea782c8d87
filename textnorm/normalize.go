// Package textnorm holds the string rules shared by every fusion stage:
// cleaning raw recognizer lines and folding text into comparison keys.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const rightSingleQuote = '’'

// Rules are the thresholds CleanLine rejects on.
type Rules struct {
	MinRunes      int     // shorter cleaned lines are rejected
	MinAlnumRatio float64 // letters+digits over all runes
}

// DefaultRules returns the thresholds tuned for on-screen caption noise.
func DefaultRules() Rules {
	return Rules{
		MinRunes:      3,
		MinAlnumRatio: 0.45,
	}
}

// CleanLine applies DefaultRules.
func CleanLine(raw string) (string, bool) {
	return DefaultRules().CleanLine(raw)
}

// CleanLine collapses whitespace, trims and maps the typographic apostrophe
// to ASCII. It reports false for lines that are too short or mostly glyph noise.
func (r Rules) CleanLine(raw string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.ReplaceAll(s, string(rightSingleQuote), "'")

	total := utf8.RuneCountInString(s)
	if total < r.MinRunes || total == 0 {
		return "", false
	}
	alnum := 0
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			alnum++
		}
	}
	if float64(alnum)/float64(total) < r.MinAlnumRatio {
		return "", false
	}
	return s, true
}

// NormalizedKey folds case and punctuation so noisy readings of the same line
// compare equal. Only letters, digits, whitespace and $ % ' / survive.
func NormalizedKey(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, string(rightSingleQuote), "'")

	var b strings.Builder
	b.Grow(len(text))
	for _, c := range text {
		switch {
		case unicode.IsLetter(c), unicode.IsDigit(c), unicode.IsSpace(c):
			b.WriteRune(c)
		case c == '$', c == '%', c == '\'', c == '/':
			b.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SameLine reports whether a and b describe the same caption: equal keys or
// one key contained in the other.
func SameLine(a, b string) bool {
	return KeysOverlap(NormalizedKey(a), NormalizedKey(b))
}

// KeysOverlap is SameLine for keys that are already normalized. Empty keys
// never overlap anything.
func KeysOverlap(ka, kb string) bool {
	if ka == "" || kb == "" {
		return false
	}
	return ka == kb || strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

// Truncate cuts s to at most limit runes. A non-positive limit disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
