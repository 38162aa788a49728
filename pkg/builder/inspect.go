package builder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/cmd"
)

// ImageInfo is the part of "image inspect" output bern reports on.
type ImageInfo struct {
	ID     string `json:"Id"`
	Size   uint64 `json:"Size"`
	Config struct {
		Env        []string          `json:"Env"`
		Cmd        []string          `json:"Cmd"`
		WorkingDir string            `json:"WorkingDir"`
		Entrypoint []string          `json:"Entrypoint"`
		Labels     map[string]string `json:"Labels"`
	} `json:"Config"`
}

// Inspect asks the engine about a built image. It returns nil in dry-run
// mode.
func (e *engine) Inspect(ctx context.Context, ref string) (*ImageInfo, error) {
	if e.opts.DryRun {
		return nil, nil
	}
	log.Debug().Str("engine", e.name).Str("op", Inspect.String()).Str("ref", ref).Msg("Preparing")
	out, err := cmd.New(e.binary).Arg("image", "inspect", ref).Env(e.env...).Output(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", ref, err)
	}

	log.Trace().Str("output", out).Msg("Inspect output")

	var inspect []ImageInfo
	if err := json.Unmarshal([]byte(out), &inspect); err != nil {
		return nil, fmt.Errorf("parsing inspect output: %w", err)
	}
	if len(inspect) == 0 {
		return nil, fmt.Errorf("inspecting %s: no such image", ref)
	}
	return &inspect[0], nil
}
