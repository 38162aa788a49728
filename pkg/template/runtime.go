package template

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Runtime collects the directives a template issues while it renders. A
// fresh Runtime is created for every Render call.
type Runtime struct {
	tags        []string
	buildArgs   map[string]string
	cliArgs     map[string]string
	output      string
	exportStage string
}

func newRuntime(cliArgs map[string]string) *Runtime {
	return &Runtime{
		buildArgs: map[string]string{},
		cliArgs:   cliArgs,
	}
}

// Tags returns the tags added with addTag, in order, without duplicates.
func (r *Runtime) Tags() []string {
	return slices.Clone(r.tags)
}

// BuildArgs returns the build arguments set with setBuildArg.
func (r *Runtime) BuildArgs() map[string]string {
	return maps.Clone(r.buildArgs)
}

func (r *Runtime) Output() string {
	return r.output
}

func (r *Runtime) ExportStage() string {
	return r.exportStage
}

func (r *Runtime) funcs() map[string]any {
	return map[string]any{
		"addTag":         r.addTag,
		"setBuildArg":    r.setBuildArg,
		"buildArg":       r.buildArg,
		"setOutput":      r.setOutput,
		"setExportStage": r.setExportStage,
	}
}

func (r *Runtime) addTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", fmt.Errorf("addTag: empty tag")
	}
	if !slices.Contains(r.tags, tag) {
		log.Debug().Str("tag", tag).Msg("Template added tag")
		r.tags = append(r.tags, tag)
	}
	return "", nil
}

func (r *Runtime) setBuildArg(name string, value any) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("setBuildArg: empty name")
	}
	r.buildArgs[name] = fmt.Sprint(value)
	return "", nil
}

// buildArg returns the value passed with --build-arg, else the one set by
// the template, else an empty string.
func (r *Runtime) buildArg(name string) string {
	if v, ok := r.cliArgs[name]; ok {
		return v
	}
	return r.buildArgs[name]
}

func (r *Runtime) setOutput(dir string) string {
	r.output = dir
	return ""
}

func (r *Runtime) setExportStage(stage string) string {
	r.exportStage = stage
	return ""
}
