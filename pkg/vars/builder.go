package vars

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/errs"
)

// Builder assembles a Context from layers of increasing precedence:
// built-ins, environment, values files, then --set overrides.
type Builder struct {
	root    string
	environ []string
	envFile string
	values  []map[string]any
	sets    []string
	setJSON []string
	clock   func() time.Time
	newID   func() string
	git     bool
}

func NewBuilder(root string) *Builder {
	return &Builder{
		root:    root,
		environ: os.Environ(),
		clock:   time.Now,
		newID:   uuid.NewString,
		git:     true,
	}
}

func (b *Builder) WithEnviron(environ []string) *Builder {
	b.environ = environ
	return b
}

// WithEnvFile loads an explicit .env file. Without it, <root>/.env is used
// when present.
func (b *Builder) WithEnvFile(path string) *Builder {
	b.envFile = path
	return b
}

func (b *Builder) WithValues(values ...map[string]any) *Builder {
	b.values = append(b.values, values...)
	return b
}

func (b *Builder) WithSet(entries ...string) *Builder {
	b.sets = append(b.sets, entries...)
	return b
}

func (b *Builder) WithSetJSON(entries ...string) *Builder {
	b.setJSON = append(b.setJSON, entries...)
	return b
}

func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithIDSource(newID func() string) *Builder {
	b.newID = newID
	return b
}

func (b *Builder) WithoutGit() *Builder {
	b.git = false
	return b
}

func (b *Builder) Build() (Context, error) {
	values := b.builtins()

	env, err := b.environment()
	if err != nil {
		return Context{}, err
	}
	for k, v := range envLayer(env) {
		values[k] = v
	}

	for _, layer := range b.values {
		for k, raw := range layer {
			if !IsIdentifier(k) {
				return Context{}, errs.Config("values", "malformed key %q", k)
			}
			v, err := FromAny(raw)
			if err != nil {
				return Context{}, errs.Config("values", "%s: %v", k, err)
			}
			values[k] = v
		}
	}

	for _, entry := range b.sets {
		path, raw, err := ParseAssignment("set", entry)
		if err != nil {
			return Context{}, err
		}
		if err := setPath(values, path, String(raw)); err != nil {
			return Context{}, err
		}
	}
	for _, entry := range b.setJSON {
		path, raw, err := ParseAssignment("set-json", entry)
		if err != nil {
			return Context{}, err
		}
		v, err := parseJSONValue("set-json", strings.Join(path, "."), raw)
		if err != nil {
			return Context{}, err
		}
		if err := setPath(values, path, v); err != nil {
			return Context{}, err
		}
	}

	log.Debug().Int("variables", len(values)).Msg("Built template context")
	return Context{values: values}, nil
}

// builtins are computed once so every reference within one render sees the
// same id and time.
func (b *Builder) builtins() map[string]Value {
	now := b.clock()
	id := b.newID()
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}

	values := map[string]Value{
		"random_id": String(strings.ToLower(short)),
		"uuid":      String(id),
		"timestamp": Number(float64(now.Unix())),
		"now":       String(now.Format(time.RFC3339)),
	}

	if b.git && b.root != "" {
		info, err := ReadGitRepo(b.root)
		if err != nil {
			log.Warn().Err(err).Msg("Not being able to read git repo metadata, skipping")
		} else if info != nil {
			values["git"] = info.value()
		}
	}
	return values
}

func (b *Builder) environment() (map[string]string, error) {
	env := EnvVariables(b.environ)

	path := b.envFile
	explicit := path != ""
	if !explicit && b.root != "" {
		path = filepath.Join(b.root, ".env")
	}
	if path == "" {
		return env, nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, errs.Config("env-file", "%v", err)
		}
		return env, nil
	}

	dotenv, err := loadDotEnv(path)
	if err != nil {
		return nil, errs.Config("env-file", "reading %s: %v", path, err)
	}
	log.Debug().Str("file", path).Int("count", len(dotenv)).Msg("Loaded .env")
	for k, v := range dotenv {
		// the real environment wins over .env defaults
		if _, ok := env[k]; !ok {
			env[k] = v
		}
	}
	return env, nil
}
