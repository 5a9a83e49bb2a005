package util

import "strings"

// Slugify turns a display name into a URL-safe slug: lowercase, runs of
// non-alphanumeric characters collapsed to single hyphens, trimmed.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
