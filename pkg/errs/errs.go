// Package errs holds the error types surfaced by bern. Each type carries
// enough context (file, line, target) to diagnose a failure without
// re-running with extra flags, and wraps its cause for errors.Is/As.
package errs

import (
	"fmt"
	"strings"
)

// ConfigError reports bad CLI or context input.
type ConfigError struct {
	Field string
	Cause error
}

func Config(field string, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Cause: fmt.Errorf(format, args...)}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Cause.Error()
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// TemplateError reports a render-time failure. Line and Column are zero
// when the location is unknown.
type TemplateError struct {
	File   string
	Line   int
	Column int
	Cause  error
}

func (e *TemplateError) Error() string {
	var loc strings.Builder
	loc.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&loc, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&loc, ":%d", e.Column)
		}
	}
	if loc.Len() == 0 {
		return "template: " + e.Cause.Error()
	}
	return fmt.Sprintf("template %s: %v", loc.String(), e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// MalformedBuildError reports a structurally invalid stage graph.
type MalformedBuildError struct {
	Line  int
	Stage string
	Cause error
}

func Malformed(line int, stage string, format string, args ...any) *MalformedBuildError {
	return &MalformedBuildError{Line: line, Stage: stage, Cause: fmt.Errorf(format, args...)}
}

func (e *MalformedBuildError) Error() string {
	msg := "malformed build file"
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Stage != "" {
		msg += fmt.Sprintf(" stage %q", e.Stage)
	}
	return msg + ": " + e.Cause.Error()
}

func (e *MalformedBuildError) Unwrap() error { return e.Cause }

// TargetNotFoundError reports a requested target that does not resolve to
// exactly one stage.
type TargetNotFoundError struct {
	Target    string
	Ambiguous bool
	Hint      string
}

func (e *TargetNotFoundError) Error() string {
	msg := fmt.Sprintf("target %q not found", e.Target)
	if e.Ambiguous {
		msg = fmt.Sprintf("target %q is ambiguous", e.Target)
	}
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// EngineError reports a failed engine invocation. Output holds the
// engine's own diagnostics, unmodified.
type EngineError struct {
	Target   string
	ExitCode int
	Output   string
	Cause    error
}

func (e *EngineError) Error() string {
	target := e.Target
	if target == "" {
		target = "(last stage)"
	}
	msg := fmt.Sprintf("engine failed building %s", target)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Cause }

// ExportError reports a failed output extraction.
type ExportError struct {
	Target string
	Dir    string
	Cause  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export of %s to %s failed: %v", e.Target, e.Dir, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }
