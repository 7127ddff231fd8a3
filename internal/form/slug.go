package form

import (
	"regexp"
	"strings"
)

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug from a display name. It is idempotent.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
