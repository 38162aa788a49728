// Package export copies the filesystem of a built stage to a host
// directory through the engine's local output.
package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/builder"
	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/image"
)

// Request describes one extraction. Image is the target that was built;
// Stage, when set, is exported instead of the target.
type Request struct {
	Image *image.Image
	// Name identifies the target in directory names and errors.
	Name      string
	Stage     string
	Dir       string
	Multi     bool
	ExtraArgs []string
}

// Destination is dir itself for a single target, or dir/<name> when several
// targets export into the same place.
func Destination(dir, name string, multi bool) string {
	if !multi {
		return dir
	}
	return filepath.Join(dir, name)
}

// Prepare creates dir and checks it is writable.
func Prepare(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".bern-probe-")
	if err != nil {
		return err
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// Extract runs the export for one built target.
func Extract(ctx context.Context, engine builder.Builder, req Request) (string, error) {
	dest := Destination(req.Dir, req.Name, req.Multi)
	if err := Prepare(dest); err != nil {
		return dest, &errs.ExportError{Target: req.Name, Dir: dest, Cause: err}
	}

	img := req.Image.Clone()
	if req.Stage != "" {
		img.SetTarget(req.Stage)
	}
	log.Info().Str("target", req.Name).Str("stage", img.String()).Str("dir", dest).Msg("Exporting")

	if err := engine.Export(ctx, builder.ExportRequest{Image: img, Dest: dest, ExtraArgs: req.ExtraArgs}); err != nil {
		return dest, err
	}
	return dest, nil
}
