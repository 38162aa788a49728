package main

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gruntwork-io/terratest/modules/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgagor/bern/pkg/config"
	"github.com/tgagor/bern/pkg/errs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes the root command in process. Flags are package state, so
// these tests do not run in parallel.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flags = config.Flags{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildOptions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "image:\n  name: alpine\n  tag: \"3.18\"\nteam: ops\n")
	writeFile(t, filepath.Join(dir, "override.jsonc"), "{\n  // newer alpine\n  \"image\": {\"tag\": \"3.19\"},\n}\n")

	opts, err := buildOptions(config.Flags{
		File:        "Dockerfile.j2",
		ValuesFiles: []string{filepath.Join(dir, "base.yaml"), filepath.Join(dir, "override.jsonc")},
		BuildArgs:   []string{"VERSION=1.2", "EMPTY="},
		Labels:      []string{"team=ops"},
		EngineArgs:  `--pull --secret "id=npm,src=/home/me/.npmrc"`,
		Targets:     []string{"app"},
	})
	require.NoError(t, err)

	require.Len(t, opts.Values, 1)
	assert.Equal(t, map[string]any{"name": "alpine", "tag": "3.19"}, opts.Values[0]["image"])
	assert.Equal(t, "ops", opts.Values[0]["team"])
	assert.Equal(t, map[string]string{"VERSION": "1.2", "EMPTY": ""}, opts.BuildArgs)
	assert.Equal(t, map[string]string{"team": "ops"}, opts.Labels)
	assert.Equal(t, []string{"--pull", "--secret", "id=npm,src=/home/me/.npmrc"}, opts.EngineArgs)
	assert.Equal(t, []string{"app"}, opts.Targets)
}

func TestBuildOptionsErrors(t *testing.T) {
	tests := []config.Flags{
		{BuildArgs: []string{"NOVALUE"}},
		{Labels: []string{"=x"}},
		{ValuesFiles: []string{filepath.Join(t.TempDir(), "missing.yaml")}},
		{EngineArgs: `--label "unterminated`},
	}
	for _, f := range tests {
		_, err := buildOptions(f)
		var configErr *errs.ConfigError
		assert.True(t, errors.As(err, &configErr), "flags %+v: %v", f, err)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Dockerfile.j2")
	writeFile(t, file, "{{ if .debug }}\n{{ end }}\nFROM {{ base }}:{{ .tag }}\n")

	out, err := run(t, "render", "-f", file, "--set", "base=alpine", "--set", "tag=3.19", "--set-json", "debug=false")
	require.NoError(t, err)
	assert.Equal(t, "FROM alpine:3.19\n", out)
}

func TestRenderCommandTemplateError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Dockerfile.j2")
	writeFile(t, file, "FROM alpine\nRUN {{ .missing }}\n")

	_, err := run(t, "render", "-f", file)
	var templateErr *errs.TemplateError
	require.ErrorAs(t, err, &templateErr)
	assert.Equal(t, 2, templateErr.Line)
}

func TestStagesCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Dockerfile.j2")
	writeFile(t, file, "FROM golang AS build\nFROM alpine AS app\nCOPY --from=build /app /app\nFROM alpine AS docs\n")

	out, err := run(t, "stages", "-f", file, "--target", "app")
	require.NoError(t, err)
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "needed")
	assert.Contains(t, out, "target")
	assert.Contains(t, out, "docs")
}

func TestContextCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Dockerfile.j2")
	writeFile(t, file, "FROM {{ base }}\n")
	writeFile(t, filepath.Join(dir, "app.sh"), "echo hi\n")
	writeFile(t, filepath.Join(dir, ".dockerignore"), "*.j2\n")
	archive := filepath.Join(t.TempDir(), "context.tar")

	_, err := run(t, "context", "-f", file, "--set", "base=alpine", "-o", archive)
	require.NoError(t, err)
	require.True(t, files.FileExists(archive))

	f, err := os.Open(archive)
	require.NoError(t, err)
	defer f.Close()
	tr := tar.NewReader(f)
	first, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "Dockerfile", first.Name)

	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	assert.Contains(t, names, "app.sh")
	assert.NotContains(t, names, "Dockerfile.j2")
}

func TestUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Dockerfile.j2")
	writeFile(t, file, "FROM alpine\n")

	_, err := run(t, "-f", file, "--engine", "kaniko")
	var configErr *errs.ConfigError
	assert.ErrorAs(t, err, &configErr)
}
