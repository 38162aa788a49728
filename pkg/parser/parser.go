// Package parser reads the stage structure of a rendered build file and
// resolves build targets against it.
package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	dockerfile "github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/errs"
)

var (
	stageName = regexp.MustCompile(`^[a-z][a-z0-9_.-]*$`)
	ordinal   = regexp.MustCompile(`^[0-9]+$`)
)

// reference is a use of another stage, found in a FROM, COPY --from or
// RUN --mount=from=.
type reference struct {
	stage int
	ref   string
	line  int
	base  bool
}

// Parse scans the FROM instructions of text and builds the stage graph.
// Dangling ordinal references, references to duplicated names and cycles
// are reported as MalformedBuildError.
func Parse(text string) (*Graph, error) {
	result, err := dockerfile.Parse(strings.NewReader(text))
	if err != nil {
		return nil, errs.Malformed(0, "", "%v", err)
	}

	g := &Graph{byName: map[string][]int{}}
	var refs []reference

	for _, node := range result.AST.Children {
		switch strings.ToLower(node.Value) {
		case "from":
			stage, err := newStage(len(g.stages), node)
			if err != nil {
				return nil, err
			}
			g.stages = append(g.stages, stage)
			if stage.Name != "" {
				g.byName[stage.Name] = append(g.byName[stage.Name], stage.Index)
			}
			refs = append(refs, reference{stage: stage.Index, ref: stage.Base, line: stage.Line, base: true})

		case "arg":
			// allowed before the first FROM
		default:
			if len(g.stages) == 0 {
				return nil, errs.Malformed(node.StartLine, "", "%s instruction before the first FROM", strings.ToUpper(node.Value))
			}
			current := len(g.stages) - 1
			for _, from := range fromFlags(node) {
				refs = append(refs, reference{stage: current, ref: from, line: node.StartLine})
			}
		}
	}

	if len(g.stages) == 0 {
		return nil, errs.Malformed(0, "", "no FROM instruction")
	}

	for _, r := range refs {
		if err := g.link(r); err != nil {
			return nil, err
		}
	}
	for _, s := range g.stages {
		slices.Sort(s.Deps)
		s.Deps = slices.Compact(s.Deps)
	}

	if err := g.checkCycles(); err != nil {
		return nil, err
	}

	log.Debug().Int("stages", len(g.stages)).Msg("Parsed build file")
	return g, nil
}

func newStage(index int, node *dockerfile.Node) (*Stage, error) {
	var args []string
	for n := node.Next; n != nil; n = n.Next {
		args = append(args, n.Value)
	}

	stage := &Stage{Index: index, Line: node.StartLine, BaseStage: -1}
	switch {
	case len(args) == 1:
		stage.Base = args[0]
	case len(args) == 3 && strings.EqualFold(args[1], "as"):
		stage.Base = args[0]
		stage.Name = strings.ToLower(args[2])
		if !stageName.MatchString(stage.Name) {
			return nil, errs.Malformed(stage.Line, args[2], "invalid stage name")
		}
	default:
		return nil, errs.Malformed(stage.Line, "", "FROM expects <image> [AS <name>], got %q", strings.Join(args, " "))
	}

	for _, flag := range node.Flags {
		if value, ok := strings.CutPrefix(flag, "--platform="); ok {
			stage.Platform = value
		}
	}
	return stage, nil
}

// fromFlags returns the stage or image references in COPY --from and
// RUN --mount=...,from= flags.
func fromFlags(node *dockerfile.Node) []string {
	var refs []string
	for _, flag := range node.Flags {
		switch {
		case strings.EqualFold(node.Value, "copy") && strings.HasPrefix(flag, "--from="):
			refs = append(refs, strings.TrimPrefix(flag, "--from="))
		case strings.EqualFold(node.Value, "run") && strings.HasPrefix(flag, "--mount="):
			for _, field := range strings.Split(strings.TrimPrefix(flag, "--mount="), ",") {
				if value, ok := strings.CutPrefix(field, "from="); ok {
					refs = append(refs, value)
				}
			}
		}
	}
	return refs
}

// link turns a reference into a graph edge. Anything that is neither a
// declared stage name nor an ordinal is an external image.
func (g *Graph) link(r reference) error {
	stage := g.stages[r.stage]
	ref := strings.ToLower(strings.TrimSpace(r.ref))
	if ref == "" || strings.Contains(ref, "$") {
		return nil
	}

	target := -1
	if ordinal.MatchString(ref) {
		idx, err := strconv.Atoi(ref)
		if err != nil || idx >= len(g.stages) {
			return errs.Malformed(r.line, stage.Ref(), "reference to stage %s which does not exist", ref)
		}
		if idx >= stage.Index {
			return errs.Malformed(r.line, stage.Ref(), "reference to stage %s which is not a prior stage", ref)
		}
		target = idx
	} else if indexes, ok := g.byName[ref]; ok {
		if len(indexes) > 1 {
			return errs.Malformed(r.line, stage.Ref(), "reference to stage %q which is declared %d times", ref, len(indexes))
		}
		// FROM alpine AS alpine names a stage after its own base image
		if indexes[0] == stage.Index && r.base {
			return nil
		}
		target = indexes[0]
	}
	if target < 0 {
		return nil
	}

	if r.base {
		stage.BaseStage = target
	}
	stage.Deps = append(stage.Deps, target)
	return nil
}
