package vars

import (
	"strings"

	"github.com/joho/godotenv"
)

// Variables named BERN_VAR_<name> become top-level template values.
const envVarPrefix = "BERN_VAR_"

// EnvVariables turns "KEY=value" pairs into a map.
func EnvVariables(environ []string) map[string]string {
	env := map[string]string{}

	for _, item := range environ {
		name, val, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = val
	}

	return env
}

// loadDotEnv reads a .env file without touching the process environment.
func loadDotEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

func envLayer(env map[string]string) map[string]Value {
	layer := map[string]Value{}
	envMap := make(map[string]Value, len(env))
	for k, v := range env {
		envMap[k] = String(v)
		if name, ok := strings.CutPrefix(k, envVarPrefix); ok && IsIdentifier(name) {
			layer[name] = String(v)
		}
	}
	layer["env"] = Value{kind: KindMap, m: envMap}
	return layer
}
