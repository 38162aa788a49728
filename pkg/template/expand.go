package template

import (
	"bytes"
	"fmt"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/rs/zerolog/log"
)

// Expand renders a single template string against data. Used for values
// that may themselves reference variables, such as tags and labels.
func Expand(pattern string, data map[string]any) (string, error) {
	t, err := texttemplate.New(pattern).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", pattern, err)
	}
	var output bytes.Buffer
	if err := t.Execute(&output, data); err != nil {
		return "", fmt.Errorf("expanding %q: %w", pattern, err)
	}
	return output.String(), nil
}

// ExpandList expands every item and trims surrounding whitespace.
func ExpandList(source []string, data map[string]any) ([]string, error) {
	var expanded []string

	for _, item := range source {
		s, err := Expand(item, data)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, strings.Trim(s, " \n"))
	}

	if len(expanded) > 0 {
		log.Trace().Strs("source", source).Strs("expanded", expanded).Msg("Expanding list")
	}

	return expanded, nil
}

// ExpandMap expands both keys and values.
func ExpandMap(source map[string]string, data map[string]any) (map[string]string, error) {
	expanded := map[string]string{}

	for key, value := range source {
		k, err := Expand(key, data)
		if err != nil {
			return nil, err
		}
		v, err := Expand(value, data)
		if err != nil {
			return nil, err
		}
		expanded[strings.Trim(k, " \n")] = strings.Trim(v, " \n")
	}

	if len(expanded) > 0 {
		log.Trace().Interface("source", source).Interface("expanded", expanded).Msg("Expanding map")
	}

	return expanded, nil
}
