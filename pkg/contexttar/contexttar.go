// Package contexttar writes a build context as a tar stream with the
// rendered build file at its root, ready for "docker build -".
package contexttar

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/pkg/archive"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/rs/zerolog/log"
)

// DockerfileName is the entry holding the rendered build file. A file of
// the same name in the context is left out.
const DockerfileName = "Dockerfile"

type Options struct {
	Root       string
	Dockerfile string
	ModTime    time.Time
}

// ExcludePatterns reads root/.dockerignore. A missing file means no
// exclusions.
func ExcludePatterns(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, ".dockerignore"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading .dockerignore: %w", err)
	}
	return patterns, nil
}

// Write streams the rendered build file followed by the context directory.
func Write(w io.Writer, opts Options) error {
	patterns, err := ExcludePatterns(opts.Root)
	if err != nil {
		return err
	}
	log.Debug().Str("root", opts.Root).Strs("exclude", patterns).Msg("Archiving context")

	tw := tar.NewWriter(w)
	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     DockerfileName,
		Mode:     0o644,
		Size:     int64(len(opts.Dockerfile)),
		ModTime:  modTime,
		Typeflag: tar.TypeReg,
	}); err != nil {
		return err
	}
	if _, err := io.WriteString(tw, opts.Dockerfile); err != nil {
		return err
	}

	stream, err := archive.TarWithOptions(opts.Root, &archive.TarOptions{
		ExcludePatterns: append(patterns, DockerfileName),
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", opts.Root, err)
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("archiving %s: %w", opts.Root, err)
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return err
		}
		count++
	}
	log.Debug().Int("entries", count+1).Msg("Context archived")
	return tw.Close()
}
