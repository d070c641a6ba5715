package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,40}$`)

// NormalizeSlug trims whitespace, lowercases the value, and ensures it matches
// the public profile slug pattern ^[a-z0-9-]{3,40}$.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("slug is required")
	}

	normalized := strings.ToLower(trimmed)
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: must be 3-40 characters of a-z, 0-9 or hyphen", input)
	}

	return normalized, nil
}
