package confloader

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "PEERHUB_"

// Loader layers configuration sources over a pre-populated target.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	knownKeys map[string]string
	sources   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file to read.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets dotted-key values applied after all other sources,
// typically from command line flags.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a loader reading PEERHUB_ variables by default.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configured file path, or "".
func (l *Loader) FilePath() string {
	return l.filePath
}

// Sources lists the sources Load read, in order: "file:<path>", "env",
// "overrides".
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// Load reads file, environment and overrides, later ones winning, and
// unmarshals the result into target. Keys no source sets keep the values
// target already holds, so target should carry the defaults.
func (l *Loader) Load(target any) error {
	l.knownKeys = keysOf(target)

	steps := []struct {
		name    string
		present bool
		load    func() error
	}{
		{"file:" + l.filePath, l.filePath != "", func() error { return l.LoadFile(l.filePath) }},
		{"env", l.envSet(), l.LoadEnv},
		{"overrides", len(l.overrides) > 0, func() error { return l.LoadMap(l.overrides) }},
	}
	for _, step := range steps {
		if !step.present {
			continue
		}
		if err := step.load(); err != nil {
			return err
		}
		l.sources = append(l.sources, step.name)
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges prefixed environment variables.
//
// Variables map to keys by stripping the prefix, lower-casing, and turning
// underscores into dots, except where an underscore is part of a known key
// name: PEERHUB_SERVER_HTTP_MAX_BODY_BYTES sets server.http.max_body_bytes
// when the target declares that key.
func (l *Loader) LoadEnv() error {
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func (l *Loader) envKey(name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
	if key, ok := l.knownKeys[s]; ok {
		return key
	}
	return strings.ReplaceAll(s, "_", ".")
}

// envSet reports whether any prefixed variable exists.
func (l *Loader) envSet() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, l.envPrefix) {
			return true
		}
	}
	return false
}

// LoadMap merges dotted-key values.
func (l *Loader) LoadMap(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	return nil
}

// Get returns the merged value for a dotted key, or nil.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// keysOf walks the koanf tags of target and returns every leaf key indexed
// by its underscore form ("server.http.max_body_bytes" under
// "server_http_max_body_bytes").
func keysOf(target any) map[string]string {
	keys := make(map[string]string)
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return keys
	}
	walkKeys(t, "", keys)
	return keys
}

func walkKeys(t reflect.Type, prefix string, keys map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		// time.Duration and other named scalars are leaves
		if ft.Kind() == reflect.Struct {
			walkKeys(ft, key, keys)
			continue
		}
		keys[strings.ReplaceAll(key, ".", "_")] = key
	}
}
