package parser

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tgagor/bern/pkg/errs"
)

// Graph holds the stages of a build file in declaration order. Edges point
// from a stage to the stages it depends on.
type Graph struct {
	stages []*Stage
	byName map[string][]int
}

func (g *Graph) Stages() []*Stage {
	return slices.Clone(g.stages)
}

func (g *Graph) Len() int {
	return len(g.stages)
}

// Last returns the final stage, the one an engine builds by default.
func (g *Graph) Last() *Stage {
	return g.stages[len(g.stages)-1]
}

// Names returns the declared stage names in declaration order.
func (g *Graph) Names() []string {
	var names []string
	for _, s := range g.stages {
		if s.Name != "" && !slices.Contains(names, s.Name) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Resolve maps the requested targets onto stages. No targets selects the
// last stage. Every entry must match exactly one stage, by name
// (case-insensitive) or ordinal; repeated entries are returned once.
func (g *Graph) Resolve(targets []string) ([]*Stage, error) {
	if len(targets) == 0 {
		return []*Stage{g.Last()}, nil
	}

	var selected []*Stage
	for _, target := range targets {
		stage, err := g.resolve(target)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(selected, stage) {
			selected = append(selected, stage)
		}
	}
	return selected, nil
}

func (g *Graph) resolve(target string) (*Stage, error) {
	key := strings.ToLower(strings.TrimSpace(target))

	if ordinal.MatchString(key) {
		idx, err := strconv.Atoi(key)
		if err != nil || idx >= len(g.stages) {
			return nil, &errs.TargetNotFoundError{
				Target: target,
				Hint:   fmt.Sprintf("build file has %d stages", len(g.stages)),
			}
		}
		stage := g.stages[idx]
		if stage.Name == "" && stage != g.Last() {
			return nil, &errs.TargetNotFoundError{
				Target: target,
				Hint:   fmt.Sprintf("stage %d has no name, add \"AS <name>\" to its FROM line to build it", idx),
			}
		}
		return stage, nil
	}

	indexes := g.byName[key]
	switch len(indexes) {
	case 0:
		hint := "build file has no named stages"
		if names := g.Names(); len(names) > 0 {
			hint = "available: " + strings.Join(names, ", ")
		}
		return nil, &errs.TargetNotFoundError{Target: target, Hint: hint}
	case 1:
		return g.stages[indexes[0]], nil
	default:
		lines := make([]string, len(indexes))
		for i, idx := range indexes {
			lines[i] = strconv.Itoa(g.stages[idx].Line)
		}
		return nil, &errs.TargetNotFoundError{
			Target:    target,
			Ambiguous: true,
			Hint:      "declared on lines " + strings.Join(lines, ", "),
		}
	}
}

// Closure returns the stages needed to build stage, dependencies first and
// stage itself last.
func (g *Graph) Closure(stage *Stage) []*Stage {
	visited := make([]bool, len(g.stages))
	var order []*Stage

	var visit func(idx int)
	visit = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		for _, dep := range g.stages[idx].Deps {
			visit(dep)
		}
		order = append(order, g.stages[idx])
	}
	visit(stage.Index)
	return order
}

const (
	white = iota // not visited
	grey         // on the current path
	black        // done
)

func (g *Graph) checkCycles() error {
	colour := make([]int, len(g.stages))
	var path []int

	var visit func(idx int) error
	visit = func(idx int) error {
		colour[idx] = grey
		path = append(path, idx)
		for _, dep := range g.stages[idx].Deps {
			switch colour[dep] {
			case grey:
				return g.cycleError(path, dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		colour[idx] = black
		return nil
	}

	for idx := range g.stages {
		if colour[idx] == white {
			if err := visit(idx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) cycleError(path []int, back int) error {
	start := slices.Index(path, back)
	var names []string
	for _, idx := range path[start:] {
		names = append(names, g.stages[idx].Ref())
	}
	names = append(names, g.stages[back].Ref())

	first := g.stages[back]
	return errs.Malformed(first.Line, first.Ref(), "dependency cycle: %s", strings.Join(names, " -> "))
}
