package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/parser"
)

const multiStage = `# syntax=docker/dockerfile:1
ARG GO_VERSION=1.22
FROM --platform=$BUILDPLATFORM golang:${GO_VERSION} AS builder
WORKDIR /src
RUN --mount=type=cache,target=/root/.cache \
    go build -o /out/app ./...

FROM scratch AS build-output
COPY --from=builder /out/app /app
`

func refs(stages []*parser.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Ref()
	}
	return out
}

func TestParseStages(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse(multiStage)
	require.NoError(t, err)

	stages := g.Stages()
	require.Len(t, stages, 2)

	assert.Equal(t, "builder", stages[0].Name)
	assert.Equal(t, "golang:${GO_VERSION}", stages[0].Base)
	assert.Equal(t, "$BUILDPLATFORM", stages[0].Platform)
	assert.Equal(t, 3, stages[0].Line)
	assert.True(t, stages[0].External())

	assert.Equal(t, "build-output", stages[1].Name)
	assert.Equal(t, 8, stages[1].Line)
	assert.Equal(t, []int{0}, stages[1].Deps)
	assert.True(t, stages[1].External())
}

func TestDefaultTargetIsLastStage(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 6; n++ {
		var b strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "FROM alpine AS s%d\nRUN echo %d\n", i, i)
		}
		g, err := parser.Parse(b.String())
		require.NoError(t, err)

		selected, err := g.Resolve(nil)
		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, n-1, selected[0].Index)
	}
}

func TestResolveByName(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse(multiStage)
	require.NoError(t, err)

	selected, err := g.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"build-output"}, refs(selected))

	selected, err = g.Resolve([]string{"builder"})
	require.NoError(t, err)
	assert.Equal(t, []string{"builder"}, refs(selected))

	selected, err = g.Resolve([]string{"BUILDER", "build-output", "builder"})
	require.NoError(t, err)
	assert.Equal(t, []string{"builder", "build-output"}, refs(selected))

	_, err = g.Resolve([]string{"tests"})
	var notFound *errs.TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "tests", notFound.Target)
	assert.False(t, notFound.Ambiguous)
	assert.Contains(t, notFound.Hint, "builder, build-output")
}

func TestResolveAmbiguous(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse("FROM alpine AS app\nFROM debian AS app\nFROM scratch\n")
	require.NoError(t, err)

	_, err = g.Resolve([]string{"app"})
	var notFound *errs.TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.True(t, notFound.Ambiguous)
	assert.Equal(t, "declared on lines 1, 2", notFound.Hint)
}

func TestResolveOrdinal(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse("FROM alpine\nFROM debian AS named\nFROM scratch\n")
	require.NoError(t, err)

	selected, err := g.Resolve([]string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{selected[0].Index, selected[1].Index})

	var notFound *errs.TargetNotFoundError
	_, err = g.Resolve([]string{"0"})
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Hint, "has no name")

	_, err = g.Resolve([]string{"7"})
	require.ErrorAs(t, err, &notFound)
}

func TestCaseInsensitiveNames(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse("FROM alpine as Base\nFROM BASE AS Final\n")
	require.NoError(t, err)

	stages := g.Stages()
	assert.Equal(t, "base", stages[0].Name)
	assert.Equal(t, 0, stages[1].BaseStage)

	selected, err := g.Resolve([]string{"FINAL"})
	require.NoError(t, err)
	assert.Equal(t, "final", selected[0].Name)
}

func TestLowercaseInstructions(t *testing.T) {
	t.Parallel()
	src := `from golang AS build
From alpine AS deps
from scratch AS app
copy --from=build /out /out
Run --mount=type=bind,from=deps,target=/deps true
`
	g, err := parser.Parse(src)
	require.NoError(t, err)

	stages := g.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"build", "deps", "app"}, g.Names())
	assert.Equal(t, 3, stages[2].Line)
	assert.Equal(t, []int{0, 1}, stages[2].Deps)
}

func TestCycles(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"FROM b AS a\nFROM a AS b\n",
		"FROM alpine AS a\nCOPY --from=a /x /x\n",
		"FROM c AS a\nFROM a AS b\nFROM alpine AS c\nRUN --mount=type=bind,from=b,target=/b true\n",
	}
	expected := []string{
		"a -> b -> a",
		"a -> a",
		"a -> c -> b -> a",
	}

	for i, input := range inputs {
		_, err := parser.Parse(input)
		var malformed *errs.MalformedBuildError
		require.ErrorAsf(t, err, &malformed, "input %d", i)
		assert.Contains(t, err.Error(), expected[i])
	}
}

func TestStageNamedAfterItsImage(t *testing.T) {
	t.Parallel()
	g, err := parser.Parse("FROM node AS node\nRUN npm ci\nFROM node AS app\n")
	require.NoError(t, err)

	stages := g.Stages()
	assert.True(t, stages[0].External())
	assert.Equal(t, 0, stages[1].BaseStage)
}

func TestMalformed(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"# only a comment\n",
		"RUN echo hi\nFROM alpine\n",
		"FROM alpine AS\n",
		"FROM alpine AS a b\n",
		"FROM alpine AS 1st\n",
		"FROM alpine\nCOPY --from=3 /a /a\n",
		"FROM alpine\nCOPY --from=1 /a /a\nFROM alpine AS next\n",
		"FROM alpine AS a\nFROM debian AS a\nFROM a AS b\n",
	}

	for _, input := range inputs {
		_, err := parser.Parse(input)
		var malformed *errs.MalformedBuildError
		assert.Truef(t, errors.As(err, &malformed), "expected MalformedBuildError for %q, got %v", input, err)
	}
}

func TestExternalReferences(t *testing.T) {
	t.Parallel()
	src := `FROM alpine AS base
COPY --from=nginx:latest /etc/nginx /etc/nginx
COPY --from=${STAGE} /x /x
RUN --mount=type=secret,id=token cat /run/secrets/token
FROM base
`
	g, err := parser.Parse(src)
	require.NoError(t, err)

	stages := g.Stages()
	assert.Empty(t, stages[0].Deps)
	assert.Equal(t, []int{0}, stages[1].Deps)
	assert.Equal(t, "1", stages[1].Ref())
	assert.Equal(t, "stage 1", stages[1].String())
}

func TestContinuationsAndComments(t *testing.T) {
	t.Parallel()
	src := "FROM alpine \\\n  AS base\n# FROM fake AS commented\nRUN echo \\\n  FROM nothing\nFROM base AS final\n"
	g, err := parser.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "final"}, g.Names())
}

func TestClosure(t *testing.T) {
	t.Parallel()
	src := `FROM alpine AS base
FROM base AS build
FROM alpine AS docs
FROM alpine AS unused
FROM scratch AS out
COPY --from=build /a /a
COPY --from=docs /d /d
`
	g, err := parser.Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "build", "docs", "out"}, refs(g.Closure(g.Last())))
	assert.Equal(t, []string{"unused"}, refs(g.Closure(g.Stages()[3])))
}
