package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// LoadValues reads a values file into a generic map. YAML is the default;
// .json, .jsonc and .hujson files are read as JSON with comments and
// trailing commas allowed.
func LoadValues(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Error loading values")
		return nil, err
	}

	values := map[string]any{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".jsonc", ".hujson":
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filename, err)
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filename, err)
		}
	default:
		if err := yaml.Unmarshal(data, &values); err != nil {
			log.Error().Err(err).Msg("Decoding YAML " + filename + " failed! Check syntax and try again")
			return nil, fmt.Errorf("decoding %s: %w", filename, err)
		}
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// MergeValues deep-merges src into dst. Nested maps are merged key by key,
// any other value in src replaces the one in dst.
func MergeValues(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		srcMap, srcOK := v.(map[string]any)
		dstMap, dstOK := dst[k].(map[string]any)
		if srcOK && dstOK {
			dst[k] = MergeValues(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}
