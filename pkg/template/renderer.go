// Package template renders templated build files with text/template and the
// sprig helper library.
package template

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/errs"
	"github.com/tgagor/bern/pkg/vars"
)

const maxIncludeDepth = 32

// Names a context key can not take over when exposed as a bare function.
var reserved = map[string]bool{
	"and": true, "call": true, "html": true, "index": true, "slice": true,
	"js": true, "len": true, "not": true, "or": true, "print": true,
	"printf": true, "println": true, "urlquery": true, "eq": true, "ge": true,
	"gt": true, "le": true, "lt": true, "ne": true,
	"include": true, "readFile": true, "readFileGlob": true,
	"addTag": true, "setBuildArg": true, "buildArg": true, "setOutput": true,
	"setExportStage": true, "now": true,
}

type Renderer struct {
	root      string
	realRoot  string
	ctx       vars.Context
	buildArgs map[string]string
}

type renderState struct {
	rt   *Runtime
	data map[string]any
}

// New returns a Renderer resolving includes against root.
func New(root string, ctx vars.Context) (*Renderer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Config("context", "%v", err)
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errs.Config("context", "%v", err)
	}
	return &Renderer{
		root:      abs,
		realRoot:  realRoot,
		ctx:       ctx,
		buildArgs: map[string]string{},
	}, nil
}

// WithBuildArgs makes CLI build arguments visible to the buildArg function.
func (r *Renderer) WithBuildArgs(args map[string]string) *Renderer {
	r.buildArgs = args
	return r
}

func (r *Renderer) Root() string {
	return r.root
}

// Render renders src, reporting errors against name.
func (r *Renderer) Render(name, src string) (string, *Runtime, error) {
	st := &renderState{
		rt:   newRuntime(r.buildArgs),
		data: r.ctx.Data(),
	}
	out, err := r.render(name, src, st, 0)
	if err != nil {
		return "", nil, err
	}
	return out, st.rt, nil
}

func (r *Renderer) RenderFile(path string) (string, *Runtime, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, &errs.TemplateError{File: path, Cause: err}
	}
	log.Debug().Str("file", path).Msg("Rendering")
	return r.Render(r.displayName(path), string(src))
}

func (r *Renderer) displayName(path string) string {
	abs, err := filepath.Abs(path)
	if err == nil && within(r.root, abs) {
		if rel, err := filepath.Rel(r.root, abs); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return path
}

func (r *Renderer) render(name, src string, st *renderState, depth int) (string, error) {
	trimmed, shifts := trimBlocks(src)

	t, err := texttemplate.New(name).
		Option("missingkey=error").
		Funcs(r.funcs(st, depth)).
		Parse(trimmed)
	if err != nil {
		return "", locate(name, shifts, err)
	}

	var output bytes.Buffer
	if err := t.Execute(&output, st.data); err != nil {
		return "", locate(name, shifts, err)
	}
	return output.String(), nil
}

func (r *Renderer) funcs(st *renderState, depth int) texttemplate.FuncMap {
	funcs := texttemplate.FuncMap(sprig.TxtFuncMap())
	for k, f := range r.fileFuncs(st, depth) {
		funcs[k] = f
	}
	for k, f := range st.rt.funcs() {
		funcs[k] = f
	}
	for k, v := range st.data {
		v := v
		if reserved[k] || !vars.IsIdentifier(k) {
			continue
		}
		funcs[k] = func() any { return v }
	}
	// bare now stays a time value for sprig's date helpers, pinned to the
	// context's timestamp
	if s, ok := st.data["now"].(string); ok {
		if at, err := time.Parse(time.RFC3339, s); err == nil {
			funcs["now"] = func() time.Time { return at }
		}
	}
	return funcs
}

// text/template reports "template: NAME:LINE: msg" for parse errors and
// "template: NAME:LINE:COL: msg" for execution errors.
var location = regexp.MustCompile(`(?s)^template: (.+?):(\d+):(?:(\d+):)? (.*)$`)

type causeError struct {
	msg string
	err error
}

func (e *causeError) Error() string { return e.msg }
func (e *causeError) Unwrap() error { return e.err }

func locate(name string, shifts []int, err error) error {
	var inner *errs.TemplateError
	if errors.As(err, &inner) {
		return inner
	}

	m := location.FindStringSubmatch(err.Error())
	if m == nil || m[1] != name {
		return &errs.TemplateError{File: name, Cause: err}
	}

	line, _ := strconv.Atoi(m[2])
	col := 0
	if m[3] != "" {
		col, _ = strconv.Atoi(m[3])
		if line > 0 && line <= len(shifts) {
			col += shifts[line-1]
		}
		col++
	}
	return &errs.TemplateError{
		File:   name,
		Line:   line,
		Column: col,
		Cause:  &causeError{msg: m[4], err: err},
	}
}
