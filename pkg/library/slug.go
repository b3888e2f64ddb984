package library

import "strings"

// Slugify turns a game name into a URL-safe slug: lowercase, runs of
// anything outside [a-z0-9] collapse to a single dash. Non-ASCII letters are
// dropped rather than transliterated.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}
