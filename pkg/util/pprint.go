package util

import (
	"encoding/json"
)

func PrettyPrintMap(v map[string]any) string {
	result, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(result)
}
