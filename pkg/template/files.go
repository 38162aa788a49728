package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

var (
	ErrOutsideRoot  = errors.New("path escapes the context directory")
	ErrFileNotFound = errors.New("file not found")
	ErrIncludeDepth = errors.New("includes nested too deeply")
)

// resolve maps a template-supplied path onto the filesystem, refusing
// anything that ends up outside the root, symlinks included.
func (r *Renderer) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFound)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}

	path := filepath.Join(r.root, filepath.FromSlash(name))
	if !within(r.root, path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return "", err
	}
	if !within(r.realRoot, resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func (r *Renderer) fileFuncs(st *renderState, depth int) map[string]any {
	return map[string]any{
		"include":      r.include(st, depth),
		"readFile":     r.readFile,
		"readFileGlob": r.readFileGlob,
	}
}

// include renders another file from the context directory with the same
// variables and runtime.
func (r *Renderer) include(st *renderState, depth int) func(name string) (string, error) {
	return func(name string) (string, error) {
		if depth+1 > maxIncludeDepth {
			return "", fmt.Errorf("%w (limit %d) at %s", ErrIncludeDepth, maxIncludeDepth, name)
		}
		path, err := r.resolve(name)
		if err != nil {
			return "", err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		log.Debug().Str("file", name).Int("depth", depth+1).Msg("Including")
		return r.render(filepath.ToSlash(filepath.Clean(name)), string(src), st, depth+1)
	}
}

func (r *Renderer) readFile(name string) (string, error) {
	path, err := r.resolve(name)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// readFileGlob returns the contents of every regular file under the root
// whose slash-separated relative path matches pattern.
func (r *Renderer) readFileGlob(pattern string) (map[string]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	err = filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !g.Match(rel) {
			return nil
		}
		content, err := r.readFile(rel)
		if errors.Is(err, ErrOutsideRoot) {
			log.Debug().Str("file", rel).Msg("Skipping link pointing outside the context")
			return nil
		}
		if err != nil {
			return err
		}
		out[rel] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
