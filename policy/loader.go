package policy

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// Loader loads and manages policies from YAML files.
type Loader struct {
	path       string
	safePath   *safepath.SafePath
	store      *CompiledStore
	mu         sync.RWMutex
	lastHash   []byte
	lastLoad   time.Time
	validators []Validator
}

// Validator validates a policy configuration before compilation.
type Validator interface {
	Validate(config *Config) error
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithValidator adds a policy validator.
func WithValidator(v Validator) LoaderOption {
	return func(l *Loader) {
		l.validators = append(l.validators, v)
	}
}

// NewLoader creates a new policy loader rooted at basePath.
func NewLoader(basePath, policyFile string, opts ...LoaderOption) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &Loader{
		path:       policyFile,
		safePath:   sp,
		validators: []Validator{&DefaultValidator{}},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load loads the policy from the file.
func (l *Loader) Load(ctx context.Context) (*CompiledStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	// Skip recompilation when the file is unchanged.
	hash := sha256.Sum256(data)
	if l.store != nil && string(hash[:]) == string(l.lastHash) {
		return l.store, nil
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}

	for _, v := range l.validators {
		if err := v.Validate(&config); err != nil {
			return nil, fmt.Errorf("policy validation failed: %w", err)
		}
	}

	compiled, err := NewCompiledStore(&config)
	if err != nil {
		return nil, fmt.Errorf("compiling policy: %w", err)
	}

	compiled.hash = fmt.Sprintf("%x", hash)

	l.store = compiled
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	return compiled, nil
}

// Get returns the current policy without reloading.
func (l *Loader) Get() *CompiledStore {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store
}

// ParseYAML parses a YAML policy configuration.
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultValidator validates policy configuration.
type DefaultValidator struct{}

// Validate validates the policy configuration.
func (v *DefaultValidator) Validate(config *Config) error {
	if config.Version == "" {
		return fmt.Errorf("policy version is required")
	}

	seen := make(map[string]bool, len(config.Roles))
	for i, r := range config.Roles {
		if r.Name == "" {
			return fmt.Errorf("role %d: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("role %q: duplicate name", r.Name)
		}
		seen[r.Name] = true

		if len(r.Users) == 0 && len(r.Groups) == 0 {
			return fmt.Errorf("role %q: at least one user or group is required", r.Name)
		}

		for j, t := range r.Tasks {
			if t.ID == "" {
				return fmt.Errorf("role %q, task %d: id is required", r.Name, j)
			}
			if len(t.Commands) == 0 {
				return fmt.Errorf("role %q, task %q: at least one command is required", r.Name, t.ID)
			}
			if m := t.Options.Path.Mode; m != "" && m != "fixed" && m != "filtered-inherit" {
				return fmt.Errorf("role %q, task %q: unknown path mode %q", r.Name, t.ID, m)
			}
		}
	}

	return nil
}
