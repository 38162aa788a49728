package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Number of attempts MkdirTemp makes before giving up on name collisions.
const tempDirAttempts = 3

func RemoveAll(paths ...string) {
	for _, path := range paths {
		log.Debug().Str("path", path).Msg("Removing temporary")
		if err := os.RemoveAll(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to remove")
		}
	}
}

// MkdirTemp creates a uniquely named directory under parent (the system
// temp dir when empty). Only a name collision is retried, each time with a
// fresh random name.
func MkdirTemp(parent, prefix string) (string, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	var lastErr error
	for attempt := 1; attempt <= tempDirAttempts; attempt++ {
		dir := filepath.Join(parent, prefix+uuid.NewString()[:13])
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		log.Debug().Str("dir", dir).Int("attempt", attempt).Msg("Temporary directory exists, retrying")
		lastErr = err
	}
	return "", fmt.Errorf("creating temporary directory after %d attempts: %w", tempDirAttempts, lastErr)
}
