package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const samplePolicy = `
version: "1.0"
metadata:
  name: test-policy
roles:
  - name: ops-role
    groups: [ops]
    tasks:
      - id: reboot
        commands: ["/usr/sbin/shutdown"]
        capabilities:
          ambient: [CAP_SYS_BOOT]
        options:
          no_root: true
          env_keep: [TERM, LANG]
          path:
            mode: fixed
            dirs: [/usr/sbin, /usr/bin]
`

func writePolicy(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	name := "policy.yaml"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing policy: %v", err)
	}
	return dir, name
}

func TestLoader_Load(t *testing.T) {
	dir, name := writePolicy(t, samplePolicy)

	loader, err := NewLoader(dir, name)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}

	store, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if store.Version() != "1.0" {
		t.Errorf("Expected version 1.0, got %q", store.Version())
	}

	d, err := store.Resolve("alice", []string{"ops"}, "/usr/sbin/shutdown", "")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !d.Granted {
		t.Error("Loaded policy must grant the configured task")
	}
}

func TestLoader_UnchangedFileReturnsSameStore(t *testing.T) {
	dir, name := writePolicy(t, samplePolicy)

	loader, err := NewLoader(dir, name)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}

	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	second, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if first != second {
		t.Error("Unchanged file must not be recompiled")
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	dir, name := writePolicy(t, "version: [unterminated")

	loader, err := NewLoader(dir, name)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}

	if _, err := loader.Load(context.Background()); err == nil {
		t.Error("Expected parse failure")
	}
}

func TestDefaultValidator(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "missing version",
			config:  Config{Roles: []RoleConfig{{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{{ID: "t", Commands: []string{"/bin/true"}}}}}},
			wantErr: true,
		},
		{
			name:    "missing role name",
			config:  Config{Version: "1", Roles: []RoleConfig{{Users: []string{"u"}}}},
			wantErr: true,
		},
		{
			name: "duplicate role name",
			config: Config{Version: "1", Roles: []RoleConfig{
				{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{{ID: "t", Commands: []string{"/bin/true"}}}},
				{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{{ID: "t", Commands: []string{"/bin/true"}}}},
			}},
			wantErr: true,
		},
		{
			name:    "role without actors",
			config:  Config{Version: "1", Roles: []RoleConfig{{Name: "r", Tasks: []TaskConfig{{ID: "t", Commands: []string{"/bin/true"}}}}}},
			wantErr: true,
		},
		{
			name:    "task without commands",
			config:  Config{Version: "1", Roles: []RoleConfig{{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{{ID: "t"}}}}},
			wantErr: true,
		},
		{
			name: "bad path mode",
			config: Config{Version: "1", Roles: []RoleConfig{{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{
				{ID: "t", Commands: []string{"/bin/true"}, Options: OptionsConfig{Path: PathConfig{Mode: "inherit-all"}}},
			}}}},
			wantErr: true,
		},
		{
			name: "valid",
			config: Config{Version: "1", Roles: []RoleConfig{{Name: "r", Users: []string{"u"}, Tasks: []TaskConfig{
				{ID: "t", Commands: []string{"/bin/true"}},
			}}}},
			wantErr: false,
		},
	}

	v := &DefaultValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.config)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewCompiledStore_RejectsBadCapability(t *testing.T) {
	cfg := &Config{
		Version: "1",
		Roles: []RoleConfig{{
			Name:  "r",
			Users: []string{"u"},
			Tasks: []TaskConfig{{
				ID:       "t",
				Commands: []string{"/bin/true"},
				Capabilities: CapabilitiesConfig{
					Ambient: []string{"cap sys boot"},
				},
			}},
		}},
	}

	if _, err := NewCompiledStore(cfg); err == nil {
		t.Error("Expected compile failure for malformed capability name")
	}
}
