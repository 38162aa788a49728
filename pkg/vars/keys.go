package vars

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tgagor/bern/pkg/errs"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name can be used as a bare template name.
func IsIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// splitKey validates a dotted key such as "versions.alpine".
func splitKey(key string) ([]string, error) {
	if key == "" {
		return nil, errs.Config("set", "empty key")
	}
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if !IsIdentifier(p) {
			return nil, errs.Config("set", "malformed key %q", key)
		}
	}
	return parts, nil
}

// ParseAssignment splits "key=value" into a validated key and the raw value.
func ParseAssignment(flag, entry string) ([]string, string, error) {
	key, value, ok := strings.Cut(entry, "=")
	if !ok {
		return nil, "", errs.Config(flag, "expected key=value, got %q", entry)
	}
	path, err := splitKey(strings.TrimSpace(key))
	if err != nil {
		return nil, "", errs.Config(flag, "malformed key %q", key)
	}
	return path, value, nil
}

func parseJSONValue(flag, key, raw string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Value{}, errs.Config(flag, "value of %s is not valid JSON: %v", key, err)
	}
	if dec.More() {
		return Value{}, errs.Config(flag, "value of %s has trailing data", key)
	}
	v, err := FromAny(decoded)
	if err != nil {
		return Value{}, errs.Config(flag, "value of %s: %v", key, err)
	}
	return v, nil
}

// setPath stores v at path inside values, creating intermediate maps.
// Descending into an existing non-map value is an error.
func setPath(values map[string]Value, path []string, v Value) error {
	head := path[0]
	if len(path) == 1 {
		values[head] = v
		return nil
	}
	child, ok := values[head]
	var inner map[string]Value
	switch {
	case !ok:
		inner = map[string]Value{}
	case child.kind == KindMap:
		inner = make(map[string]Value, len(child.m))
		for k, item := range child.m {
			inner[k] = item
		}
	default:
		return errs.Config("set", "cannot set %s: %q is a %s, not a map", strings.Join(path, "."), head, child.kind)
	}
	if err := setPath(inner, path[1:], v); err != nil {
		return err
	}
	values[head] = Value{kind: KindMap, m: inner}
	return nil
}
