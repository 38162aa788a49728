package image

import (
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/tgagor/bern/pkg/errs"
)

// ValidateTags checks every tag is a valid image reference with a tag (or
// an implied "latest").
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		if _, err := name.NewTag(tag); err != nil {
			return errs.Config("tag", "invalid tag %q: %v", tag, err)
		}
	}
	return nil
}

// ParseKeyValues turns repeated KEY=VALUE flags into a map. Later entries
// win. An entry without "=" or with an empty key is a ConfigError.
func ParseKeyValues(flag string, entries []string) (map[string]string, error) {
	out := map[string]string{}
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errs.Config(flag, "expected KEY=VALUE, got %q", entry)
		}
		out[key] = value
	}
	return out, nil
}
