package clan

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tag limits, counted in runes after color markup is stripped.
const (
	MinTagLen = 2
	MaxTagLen = 16
)

var (
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.English)
)

// isColorPrefix reports whether r introduces a two-rune color/style code.
func isColorPrefix(r rune) bool {
	return r == '&' || r == '§'
}

// isColorCode reports whether r is a valid color/style code character (0-9, a-f, k-o, r).
func isColorCode(r rune) bool {
	r = unicode.ToLower(r)
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'k' && r <= 'o') || r == 'r'
}

// StripColors removes color/style markup ("&a", "§l", ...) from s.
func StripColors(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if isColorPrefix(runes[i]) && i+1 < len(runes) && isColorCode(runes[i+1]) {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// NormalizeTag returns the clan identity for a display tag:
// markup stripped, surrounding whitespace trimmed, lowercased.
func NormalizeTag(displayTag string) string {
	return lowerCaser.String(strings.TrimSpace(StripColors(displayTag)))
}

// NormalizeName returns the lookup key for a player name.
func NormalizeName(name string) string {
	return lowerCaser.String(strings.TrimSpace(name))
}

// Capitalize title-cases s for headings and notices.
func Capitalize(s string) string {
	return titleCaser.String(s)
}

// CompareTags orders tags case-insensitively.
func CompareTags(a, b string) int {
	return strings.Compare(lowerCaser.String(a), lowerCaser.String(b))
}

// validateTag checks clan tag constraints on the cleaned tag.
func validateTag(displayTag string) error {
	tag := NormalizeTag(displayTag)
	n := utf8.RuneCountInString(tag)
	if n < MinTagLen || n > MaxTagLen {
		return fmt.Errorf("%w: length must be %d-%d", ErrClanTagInvalid, MinTagLen, MaxTagLen)
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: invalid character %q", ErrClanTagInvalid, r)
		}
	}
	return nil
}
