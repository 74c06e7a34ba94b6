package entity

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug normaliza um título para uso em URL pública.
// "Hello, World!!" -> "hello-world", "  ---  " -> "".
func GenerateSlug(text string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(text), "-")
	slug = strings.TrimPrefix(slug, "-")
	return strings.TrimSuffix(slug, "-")
}
