package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgagor/bern/pkg/template"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	// Arrange
	inputStrings := []string{
		"{{ .key }}",
		"{{ .key }}",
		"{{ .key }}",
		"  {{ .key }}  ",
		"{{ .sprig | default \"works\" }}",
		"{{range .loop}}{{.}}{{ end }}",
	}
	inputArgs := []map[string]any{
		{"key": "value"},
		{"key": 1},
		{"key": 1.43},
		{"key": "value"},
		{"sprig": ""},
		{"loop": []int{1, 2, 3}},
	}

	expected := []string{
		"value",
		"1",
		"1.43",
		"  value  ",
		"works",
		"123",
	}

	// Assert
	for i, input := range inputStrings {
		result, err := template.Expand(input, inputArgs[i])
		require.NoError(t, err)
		assert.Equal(t, expected[i], result)
	}
}

func TestExpandMissingKey(t *testing.T) {
	t.Parallel()
	_, err := template.Expand("{{ .git.commit }}", map[string]any{})
	assert.Error(t, err)
}

func TestExpandList(t *testing.T) {
	t.Parallel()
	data := map[string]any{"version": "1.2.3", "registry": "ghcr.io/acme"}

	result, err := template.ExpandList([]string{"{{ .registry }}/app:{{ .version }}", " app:latest \n"}, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghcr.io/acme/app:1.2.3", "app:latest"}, result)
}

func TestExpandMap(t *testing.T) {
	t.Parallel()
	data := map[string]any{"maintainer": "ops@example.com"}

	result, err := template.ExpandMap(map[string]string{"org.opencontainers.image.authors": "{{ .maintainer }}"}, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"org.opencontainers.image.authors": "ops@example.com"}, result)
}
