package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/cmd"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/util"
)

// engine holds what the docker, buildx and podman drivers share: they all
// speak the same "build" command line and differ in the binary, the
// subcommand and the environment.
type engine struct {
	name       string
	binary     string
	subcommand []string
	env        []string
	opts       Options
}

func (e *engine) Name() string {
	return e.name
}

func (e *engine) command(op Op, target string) *cmd.Cmd {
	c := cmd.New(e.binary).
		Arg(e.subcommand...).
		Env(e.env...).
		SetVerbose(e.opts.Verbose).
		SetDryRun(e.opts.DryRun)
	if e.opts.Stream != nil {
		c.SetStream(e.opts.Stream)
	}
	if target == "" {
		target = "(last stage)"
	}
	log.Debug().Str("engine", e.name).Str("op", op.String()).Str("target", target).Msg("Preparing")
	return c
}

func (e *engine) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	img := req.Image
	result := BuildResult{Tags: img.Tags()}

	workDir := req.WorkDir
	if workDir == "" {
		dir, err := util.MkdirTemp("", "bern-iid-")
		if err != nil {
			return result, &errs.EngineError{Target: img.Target, Cause: err}
		}
		defer util.RemoveAll(dir)
		workDir = dir
	}
	iidFile := filepath.Join(workDir, "iid-"+sanitizeForFileName(img.String()))

	builder := e.command(Build, img.Target).
		Arg(commonArgs(img)...).
		Arg(labelsToArgs(img.Labels)...).
		Arg(tagsToArgs(img.Tags())...).
		Arg("--iidfile", iidFile).
		Arg(req.ExtraArgs...).
		Arg(img.ContextDir).
		PreInfo("Building " + img.String())

	out, err := builder.Run(ctx)
	if err != nil {
		return result, e.failure(img.Target, out, err)
	}
	if e.opts.DryRun {
		return result, nil
	}

	id, err := readImageID(iidFile)
	if err != nil {
		return result, &errs.EngineError{Target: img.Target, Cause: err}
	}
	result.ImageID = id
	log.Info().Str("target", img.String()).Str("id", id.Encoded()[:12]).Strs("tags", result.Tags).Msg("Built")
	return result, nil
}

func (e *engine) Export(ctx context.Context, req ExportRequest) error {
	img := req.Image
	exporter := e.command(Export, img.Target).
		Arg(commonArgs(img)...).
		Arg("--output", "type=local,dest="+req.Dest).
		Arg(req.ExtraArgs...).
		Arg(img.ContextDir).
		PreInfo("Exporting " + img.String() + " to " + req.Dest)

	out, err := exporter.Run(ctx)
	if err != nil {
		return &errs.ExportError{Target: img.String(), Dir: req.Dest, Cause: e.failure(img.Target, out, err)}
	}
	return nil
}

func (e *engine) failure(target, output string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &errs.EngineError{Target: target, Cause: err}
	}
	engineErr := &errs.EngineError{Target: target, ExitCode: cmd.ExitCode(err), Cause: err}
	// verbose runs already streamed the output
	if !e.opts.Verbose {
		engineErr.Output = output
	}
	return engineErr
}

func readImageID(path string) (digest.Digest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image id: %w", err)
	}
	id, err := digest.Parse(strings.TrimSpace(string(content)))
	if err != nil {
		return "", fmt.Errorf("engine wrote an invalid image id %q: %w", strings.TrimSpace(string(content)), err)
	}
	return id, nil
}
