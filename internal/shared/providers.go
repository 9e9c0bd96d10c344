package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config values resolve through an ordered provider chain: environment
// first, then the YAML config file, then the compiled default. Providers
// report presence separately from the value, so an explicitly empty setting
// is distinct from a missing one.

type Provider interface {
	Lookup(key string) (string, bool)
}

type EnvProvider struct{}

func (EnvProvider) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// YAMLProvider reads a flat YAML file of scalar settings. Keys are matched
// against the lower-cased form of the lookup key (HTTP_ADDR -> http_addr).
type YAMLProvider struct {
	values map[string]string
}

// LoadYAML searches dirs in order and parses the first file found. A file
// that exists in none of the dirs is not an error; the provider just never
// matches.
func LoadYAML(fileName string, dirs ...string) (*YAMLProvider, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, fileName)
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		raw := map[string]any{}
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			values[strings.ToLower(k)] = fmt.Sprintf("%v", v)
		}
		return &YAMLProvider{values: values}, nil
	}
	return &YAMLProvider{}, nil
}

func (p *YAMLProvider) Lookup(key string) (string, bool) {
	v, ok := p.values[strings.ToLower(key)]
	return v, ok
}

// Resolver queries providers in priority order.
type Resolver struct {
	providers []Provider
}

func NewResolver(ps ...Provider) Resolver { return Resolver{providers: ps} }

func (r Resolver) lookup(key string) (string, bool) {
	for _, p := range r.providers {
		if v, ok := p.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

func (r Resolver) String(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r Resolver) Int(key string, def int) int {
	if v, ok := r.lookup(key); ok {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return def
}

// List splits a comma-separated value, trimming blanks.
func (r Resolver) List(key string, def []string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
