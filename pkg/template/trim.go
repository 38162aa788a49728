package template

import (
	"regexp"
	"strings"
)

// controlLine matches a line holding nothing but one action that produces
// no output: control keywords, comments, variable declarations and the
// runtime directives.
var controlLine = regexp.MustCompile(
	`^([ \t]*)(\{\{-?\s*(?:(?:if|else|end|range|with|define|block|break|continue|addTag|setBuildArg|setOutput|setExportStage)\b|/\*|\$\w*\s*:?=)(?:[^}]|\}[^}])*\}\})[ \t\r]*$`,
)

const (
	openComment  = "{{/*"
	closeComment = "*/}}"
)

// trimBlocks rewrites control-only lines so they leave nothing behind in the
// output. The newline ending such a line is moved inside a template comment,
// which keeps line numbers intact for diagnostics. The returned shifts hold,
// per line, how many columns were removed from the start of that line.
func trimBlocks(src string) (string, []int) {
	lines := strings.Split(src, "\n")
	shifts := make([]int, len(lines))

	control := make([]bool, len(lines))
	for i, line := range lines {
		control[i] = controlLine.MatchString(line)
	}

	for i, line := range lines {
		prefix := ""
		if i > 0 && control[i-1] {
			prefix = closeComment
		}
		if !control[i] {
			lines[i] = prefix + line
			shifts[i] = -len(prefix)
			continue
		}

		m := controlLine.FindStringSubmatch(line)
		indent := m[1]
		action, removed := dropTrimMarkers(m[2])
		suffix := ""
		if i < len(lines)-1 {
			suffix = openComment
		}
		lines[i] = prefix + action + suffix
		shifts[i] = len(indent) + removed - len(prefix)
	}

	return strings.Join(lines, "\n"), shifts
}

// dropTrimMarkers turns "{{- x -}}" into "{{x}}". On a control line the
// markers would eat the newlines of the surrounding lines, which trimBlocks
// already accounts for. It returns the number of columns removed before
// the action's body.
func dropTrimMarkers(action string) (string, int) {
	removed := 0
	if len(action) > 3 && strings.HasPrefix(action, "{{-") && isBlank(action[3]) {
		body := strings.TrimLeft(action[3:], " \t")
		removed = len(action) - 2 - len(body)
		action = "{{" + body
	}
	if n := len(action); n > 4 && strings.HasSuffix(action, "-}}") && isBlank(action[n-4]) {
		action = strings.TrimRight(action[:n-3], " \t") + "}}"
	}
	return action, removed
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
