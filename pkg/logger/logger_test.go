package logger_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/tgagor/bern/pkg/logger"
)

func TestLevel(t *testing.T) {
	// Arrange
	input := []logger.Options{
		{},
		{Verbose: true},
		{Quiet: true},
		{Verbose: true, Quiet: true},
	}
	expected := []zerolog.Level{
		zerolog.InfoLevel,
		zerolog.DebugLevel,
		zerolog.WarnLevel,
		zerolog.DebugLevel,
	}

	// Assert
	for i, input := range input {
		assert.Equal(t, expected[i], logger.Level(input))
	}
}

func TestNew(t *testing.T) {
	var b bytes.Buffer
	l := logger.New(&b, true)
	l.Info().Str("target", "app").Msg("Building")

	assert.Contains(t, b.String(), "Building")
	assert.Contains(t, b.String(), "target=app")
}
