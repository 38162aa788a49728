package builder

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/errs"
)

const (
	EngineAuto   = "auto"
	EngineBuildx = "buildx"
	EngineDocker = "docker"
	EnginePodman = "podman"
)

// Lookup finds executables; exec.LookPath outside of tests.
type Lookup func(file string) (string, error)

// Detect picks the engine binary and driver. $DOCKER always names the
// binary when set; otherwise auto mode prefers docker (with buildx) and
// falls back to podman.
func Detect(engine string, getenv func(string) string, lookPath Lookup) (driver, binary string, err error) {
	override := getenv("DOCKER")

	switch engine {
	case "", EngineAuto:
		if override != "" {
			if isPodman(override) {
				return EnginePodman, override, nil
			}
			return EngineBuildx, override, nil
		}
		if path, err := lookPath("docker"); err == nil {
			return EngineBuildx, path, nil
		}
		if path, err := lookPath("podman"); err == nil {
			return EnginePodman, path, nil
		}
		return "", "", errs.Config("engine", "neither docker nor podman found in PATH, set $DOCKER to the engine binary")
	case EngineBuildx, EngineDocker:
		if override != "" {
			return engine, override, nil
		}
		return engine, "docker", nil
	case EnginePodman:
		if override != "" {
			return engine, override, nil
		}
		return engine, "podman", nil
	default:
		return "", "", errs.Config("engine", "unknown engine %q, expected auto, buildx, docker or podman", engine)
	}
}

func isPodman(binary string) bool {
	return strings.Contains(filepath.Base(binary), "podman")
}

// New returns the driver selected by engine.
func New(engine string, opts Options) (Builder, error) {
	driver, binary, err := Detect(engine, os.Getenv, exec.LookPath)
	if err != nil {
		return nil, err
	}
	if opts.Binary == "" {
		opts.Binary = binary
	}
	log.Debug().Str("driver", driver).Str("binary", opts.Binary).Msg("Selected engine")

	switch driver {
	case EngineDocker:
		return NewDocker(opts), nil
	case EnginePodman:
		return NewPodman(opts), nil
	default:
		return NewBuildx(opts), nil
	}
}
