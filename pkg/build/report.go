package build

import (
	"errors"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/opencontainers/go-digest"

	"github.com/tgagor/bern/pkg/util"
)

// TargetResult is the outcome of one target. Built images are kept even
// when a later step fails.
type TargetResult struct {
	Target    string
	ImageID   digest.Digest
	Tags      []string
	Size      uint64
	Built     bool
	Skipped   bool
	ExportDir string
	BuildErr  error
	ExportErr error
}

func (r *TargetResult) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.BuildErr != nil:
		return "build failed"
	case r.ExportErr != nil:
		return "export failed"
	case r.Built && r.ExportDir != "":
		return "exported"
	case r.Built:
		return "built"
	default:
		return "pending"
	}
}

type Report struct {
	Engine  string
	Results []*TargetResult
}

// Err joins every build and export failure, nil when all targets succeeded.
func (r *Report) Err() error {
	var failures []error
	for _, res := range r.Results {
		failures = append(failures, res.BuildErr, res.ExportErr)
	}
	return errors.Join(failures...)
}

// Print writes the per-target summary table.
func (r *Report) Print(w io.Writer, color bool) {
	if len(r.Results) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(tableStyle(color))
	t.AppendHeader(table.Row{"Target", "Image ID", "Tags", "Size", "Status"})

	for _, res := range r.Results {
		id := ""
		if res.ImageID != "" {
			id = shortID(res.ImageID)
		}
		size := ""
		if res.Size > 0 {
			size = util.ByteCountIEC(res.Size)
		}
		status := res.Status()
		if color {
			status = colorStatus(status)
		}
		t.AppendRow(table.Row{res.Target, id, strings.Join(res.Tags, "\n"), size, status})
	}

	t.Render()
}

func shortID(id digest.Digest) string {
	encoded := id.Encoded()
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}
	return encoded
}

func colorStatus(status string) string {
	switch status {
	case "built", "exported":
		return text.FgGreen.Sprint(status)
	case "skipped":
		return text.FgHiBlack.Sprint(status)
	default:
		return text.FgRed.Sprint(status)
	}
}

func tableStyle(color bool) table.Style {
	style := table.StyleRounded
	if color {
		style.Color.Header = text.Colors{text.FgHiCyan, text.Bold}
		style.Color.Border = text.Colors{text.FgHiBlack}
	}
	style.Options.SeparateRows = false
	return style
}
