// Package builder drives an external container build engine. The engine is
// a black box: it gets a build file, a context and a target, and reports
// success through its exit status.
package builder

import (
	"context"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/tgagor/bern/pkg/image"
)

//go:generate mockgen -destination=../build/mock_builder_test.go -package=build_test github.com/tgagor/bern/pkg/builder Builder

// Builder is a build engine driver. Drivers run one engine invocation per
// call and report failures as *errs.EngineError.
type Builder interface {
	// Name identifies the driver, e.g. "buildx".
	Name() string

	// Build builds one target of the rendered build file.
	Build(ctx context.Context, req BuildRequest) (BuildResult, error)

	// Export writes the filesystem of a stage into a host directory.
	Export(ctx context.Context, req ExportRequest) error
}

// Inspector is implemented by drivers that can report on built images.
type Inspector interface {
	Inspect(ctx context.Context, ref string) (*ImageInfo, error)
}

type BuildRequest struct {
	Image *image.Image
	// WorkDir receives scratch files such as the image id file.
	WorkDir   string
	ExtraArgs []string
}

type BuildResult struct {
	ImageID digest.Digest
	Tags    []string
}

type ExportRequest struct {
	// Image.Target is the stage whose filesystem is exported.
	Image     *image.Image
	Dest      string
	ExtraArgs []string
}

type Options struct {
	// Binary overrides the engine executable.
	Binary  string
	Verbose bool
	DryRun  bool
	// Stream receives engine output when Verbose is set (stderr if nil).
	Stream io.Writer
}
