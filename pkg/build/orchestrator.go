package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/builder"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/export"
	"github.com/tgagor/bern/pkg/image"
	"github.com/tgagor/bern/pkg/parser"
	"github.com/tgagor/bern/pkg/runner"
	"github.com/tgagor/bern/pkg/util"
)

// Run prepares and executes one invocation. Nothing reaches the engine
// unless preparation succeeds. The report is returned even when some
// targets fail; the error then joins the per-target build and export
// failures.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	plan, err := o.Prepare(opts)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, plan, opts)
}

// Execute builds every planned target from a scratch copy of the rendered
// file. The scratch directory is removed on every exit path.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan, opts Options) (*Report, error) {
	dir, err := util.MkdirTemp(o.TempDir, "bern-")
	if err != nil {
		return nil, errs.Config("temp-dir", "%v", err)
	}
	defer util.RemoveAll(dir)

	dockerfile := filepath.Join(dir, "Dockerfile")
	if err := os.WriteFile(dockerfile, []byte(plan.Rendered), 0o644); err != nil {
		return nil, errs.Config("temp-dir", "writing rendered file: %v", err)
	}
	log.Debug().Str("file", dockerfile).Msg("Rendered build file written")

	tags := plan.Image.Tags()
	if len(plan.Targets) > 1 && len(tags) > 0 {
		log.Warn().Strs("tags", tags).Int("targets", len(plan.Targets)).
			Msg("Every target gets the same tags, the last one built keeps them")
	}
	if opts.DryRun {
		log.Info().Msg("Dry run, engine commands are only printed")
	}

	multi := len(plan.Targets) > 1
	report := &Report{Engine: o.Engine.Name()}
	r := runner.New().KeepGoing(opts.KeepGoing)

	for _, stage := range plan.Targets {
		stage := stage
		result := &TargetResult{Target: stage.String()}
		report.Results = append(report.Results, result)

		img := plan.Image.Clone().
			SetDockerfile(dockerfile).
			SetTarget(engineTarget(stage))
		r = r.AddTask(runner.Task{
			Name: stage.String(),
			Run: func(ctx context.Context) error {
				return o.buildTarget(ctx, buildJob{
					plan:    plan,
					stage:   stage,
					image:   img,
					workDir: dir,
					multi:   multi,
					extra:   opts.EngineArgs,
					result:  result,
				})
			},
		})
	}

	outcomes, err := r.Run(ctx)
	failures := []error{err}
	for i, outcome := range outcomes {
		report.Results[i].Skipped = outcome.Skipped
		failures = append(failures, report.Results[i].ExportErr)
	}
	return report, errors.Join(failures...)
}

type buildJob struct {
	plan    *Plan
	stage   *parser.Stage
	image   *image.Image
	workDir string
	multi   bool
	extra   []string
	result  *TargetResult
}

func (o *Orchestrator) buildTarget(ctx context.Context, job buildJob) error {
	result := job.result
	log.Info().Str("target", result.Target).Str("engine", o.Engine.Name()).Msg("Building")

	built, err := o.Engine.Build(ctx, builder.BuildRequest{
		Image:     job.image,
		WorkDir:   job.workDir,
		ExtraArgs: job.extra,
	})
	result.ImageID = built.ImageID
	result.Tags = built.Tags
	if err != nil {
		result.BuildErr = err
		return err
	}
	result.Built = true

	if inspector, ok := o.Engine.(builder.Inspector); ok && built.ImageID != "" {
		info, err := inspector.Inspect(ctx, built.ImageID.String())
		if err != nil {
			log.Warn().Err(err).Str("target", result.Target).Msg("Failed to inspect image")
		} else if info != nil {
			result.Size = info.Size
		}
	}

	if job.plan.Output == "" {
		return nil
	}
	dest, err := export.Extract(ctx, o.Engine, export.Request{
		Image:     job.image,
		Name:      exportName(job.stage),
		Stage:     job.plan.ExportStage,
		Dir:       job.plan.Output,
		Multi:     job.multi,
		ExtraArgs: job.extra,
	})
	result.ExportDir = dest
	if err != nil {
		// the image stays built and later targets still run
		log.Error().Err(err).Str("target", result.Target).Msg("Export failed")
		result.ExportErr = err
	}
	return nil
}

// exportName names a target's export subdirectory.
func exportName(s *parser.Stage) string {
	if s.Name != "" {
		return s.Name
	}
	return "stage-" + strconv.Itoa(s.Index)
}
