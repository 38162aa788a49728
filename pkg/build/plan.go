// Package build ties the pipeline together: context, render, stage graph,
// engine runs and exports.
package build

import (
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/builder"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/image"
	"github.com/tgagor/bern/pkg/parser"
	"github.com/tgagor/bern/pkg/template"
	"github.com/tgagor/bern/pkg/vars"
)

// Options is one invocation's worth of user input, already parsed from
// flags and values files.
type Options struct {
	File        string
	ContextDir  string
	Targets     []string
	Tags        []string
	Output      string
	ExportStage string
	Values      []map[string]any
	Set         []string
	SetJSON     []string
	EnvFile     string
	BuildArgs   map[string]string
	Labels      map[string]string
	OCILabels   bool
	Platforms   []string
	EngineArgs  []string
	KeepGoing   bool
	DryRun      bool
}

// Orchestrator runs builds against Engine. The remaining fields default to
// the process environment, wall clock and system temp dir.
type Orchestrator struct {
	Engine  builder.Builder
	Environ []string
	Clock   func() time.Time
	IDs     func() string
	NoGit   bool
	TempDir string
}

// Plan is everything decided before the engine runs.
type Plan struct {
	Context  vars.Context
	Rendered string
	Graph    *parser.Graph
	Targets  []*parser.Stage
	// Image carries the settings shared by every target.
	Image       *image.Image
	Output      string
	ExportStage string
}

func (o *Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

// ContextRoot is the explicit context or the input file's directory, made
// absolute.
func (opts Options) ContextRoot() (string, error) {
	dir := opts.ContextDir
	if dir == "" {
		dir = filepath.Dir(opts.File)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errs.Config("context", "%v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errs.Config("context", "%v", err)
	}
	if !info.IsDir() {
		return "", errs.Config("context", "%s is not a directory", abs)
	}
	return abs, nil
}

// Context builds the template variables for opts.
func (o *Orchestrator) Context(opts Options) (vars.Context, string, error) {
	root, err := opts.ContextRoot()
	if err != nil {
		return vars.Context{}, "", err
	}
	b := vars.NewBuilder(root).
		WithEnvFile(opts.EnvFile).
		WithValues(opts.Values...).
		WithSet(opts.Set...).
		WithSetJSON(opts.SetJSON...)
	if o.Environ != nil {
		b.WithEnviron(o.Environ)
	}
	if o.Clock != nil {
		b.WithClock(o.Clock)
	}
	if o.IDs != nil {
		b.WithIDSource(o.IDs)
	}
	if o.NoGit {
		b.WithoutGit()
	}
	ctx, err := b.Build()
	return ctx, root, err
}

// Render builds the context and renders the input file.
func (o *Orchestrator) Render(opts Options) (string, *template.Runtime, vars.Context, error) {
	ctx, root, err := o.Context(opts)
	if err != nil {
		return "", nil, ctx, err
	}
	r, err := template.New(root, ctx)
	if err != nil {
		return "", nil, ctx, err
	}
	out, rt, err := r.WithBuildArgs(opts.BuildArgs).RenderFile(opts.File)
	return out, rt, ctx, err
}

// Prepare runs every step that can fail before the engine is involved:
// context, render, directives, tag validation and target resolution.
func (o *Orchestrator) Prepare(opts Options) (*Plan, error) {
	rendered, rt, ctx, err := o.Render(opts)
	if err != nil {
		return nil, err
	}
	root, err := opts.ContextRoot()
	if err != nil {
		return nil, err
	}
	data := ctx.Data()

	tags, err := template.ExpandList(opts.Tags, data)
	if err != nil {
		return nil, errs.Config("tag", "%v", err)
	}

	// CLI build args override the ones set from the template
	buildArgs := rt.BuildArgs()
	maps.Copy(buildArgs, opts.BuildArgs)

	labels := map[string]string{}
	if opts.OCILabels {
		maps.Copy(labels, image.OCILabels(root, data, o.now()))
	}
	userLabels, err := template.ExpandMap(opts.Labels, data)
	if err != nil {
		return nil, errs.Config("label", "%v", err)
	}
	maps.Copy(labels, userLabels)

	img := image.New().
		SetContextDir(root).
		AddTags(tags...).
		AddTags(rt.Tags()...).
		AddArgs(buildArgs).
		AddLabels(labels).
		SetPlatforms(opts.Platforms)
	if err := image.ValidateTags(img.Tags()); err != nil {
		return nil, err
	}

	plan := &Plan{
		Context:     ctx,
		Rendered:    rendered,
		Image:       img,
		Output:      opts.Output,
		ExportStage: opts.ExportStage,
	}
	if plan.Output == "" && rt.Output() != "" {
		plan.Output = rt.Output()
		// relative to the context, like every other template path
		if !filepath.IsAbs(plan.Output) {
			plan.Output = filepath.Join(root, plan.Output)
		}
	}
	if plan.ExportStage == "" {
		plan.ExportStage = rt.ExportStage()
	}

	plan.Graph, err = parser.Parse(rendered)
	if err != nil {
		return nil, err
	}
	plan.Targets, err = plan.Graph.Resolve(opts.Targets)
	if err != nil {
		return nil, err
	}

	if plan.ExportStage != "" {
		if plan.Output == "" {
			log.Warn().Str("stage", plan.ExportStage).Msg("Export stage set without an output directory, ignoring")
			plan.ExportStage = ""
		} else {
			stages, err := plan.Graph.Resolve([]string{plan.ExportStage})
			if err != nil {
				return nil, err
			}
			if stages[0].Name == "" {
				return nil, &errs.TargetNotFoundError{
					Target: plan.ExportStage,
					Hint:   "the export stage needs a name, add \"AS <name>\" to its FROM line",
				}
			}
			plan.ExportStage = stages[0].Name
		}
	}

	log.Debug().
		Int("stages", plan.Graph.Len()).
		Strs("targets", targetNames(plan.Targets)).
		Strs("tags", img.Tags()).
		Str("output", plan.Output).
		Msg("Prepared")
	return plan, nil
}

// engineTarget is the --target value for a stage: its name, or nothing for
// the unnamed last stage the engine builds by default.
func engineTarget(s *parser.Stage) string {
	return s.Name
}

func targetNames(stages []*parser.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.String())
	}
	return names
}
