package util_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgagor/bern/pkg/util"
)

func TestMkdirTemp(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()

	first, err := util.MkdirTemp(parent, "bern-")
	require.NoError(t, err)
	second, err := util.MkdirTemp(parent, "bern-")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, parent, filepath.Dir(first))
	assert.True(t, strings.HasPrefix(filepath.Base(first), "bern-"))
	assert.DirExists(t, first)

	util.RemoveAll(first, second)
	assert.NoDirExists(t, first)
	assert.NoDirExists(t, second)
}

func TestMkdirTempMissingParent(t *testing.T) {
	t.Parallel()
	_, err := util.MkdirTemp(filepath.Join(t.TempDir(), "missing"), "bern-")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrettyPrintMap(t *testing.T) {
	t.Parallel()
	out := util.PrettyPrintMap(map[string]any{"b": 1, "a": "x"})
	assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": 1\n}", out)
}
