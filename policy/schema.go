package policy

// Config represents the YAML policy structure.
type Config struct {
	Version  string       `yaml:"version"`
	Metadata Metadata     `yaml:"metadata"`
	Roles    []RoleConfig `yaml:"roles"`
}

// Metadata contains policy metadata.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Created     string `yaml:"created"`
	Updated     string `yaml:"updated"`
}

// RoleConfig binds users and groups to a set of tasks.
type RoleConfig struct {
	Name   string       `yaml:"name"`
	Users  []string     `yaml:"users"`
	Groups []string     `yaml:"groups"`
	Tasks  []TaskConfig `yaml:"tasks"`
}

// TaskConfig grants a capability triple and execution options for a
// set of commands. Commands are exact paths, bare names, or wildcard
// patterns.
type TaskConfig struct {
	ID           string             `yaml:"id"`
	Commands     []string           `yaml:"commands"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	Options      OptionsConfig      `yaml:"options"`
}

// CapabilitiesConfig names the three capability sets of a task. An
// omitted bounding set defaults to exactly the granted capabilities.
type CapabilitiesConfig struct {
	Inheritable []string `yaml:"inheritable"`
	Ambient     []string `yaml:"ambient"`
	Bounding    []string `yaml:"bounding"`
}

// OptionsConfig are the per-task execution options.
type OptionsConfig struct {
	NoRoot   bool       `yaml:"no_root"`
	EnvKeep  []string   `yaml:"env_keep"`
	EnvCheck []string   `yaml:"env_check"`
	Path     PathConfig `yaml:"path"`
}

// PathConfig selects the search-path mode: "fixed" (the default) or
// "filtered-inherit".
type PathConfig struct {
	Mode string   `yaml:"mode"`
	Dirs []string `yaml:"dirs"`
}

// ExamplePolicy returns an example policy configuration.
func ExamplePolicy() *Config {
	return &Config{
		Version: "1.0",
		Metadata: Metadata{
			Name:        "example-policy",
			Description: "Example capability delegation policy",
		},
		Roles: []RoleConfig{
			{
				Name:   "ops-role",
				Groups: []string{"ops"},
				Tasks: []TaskConfig{
					{
						ID:       "reboot",
						Commands: []string{"/usr/sbin/shutdown"},
						Capabilities: CapabilitiesConfig{
							Ambient: []string{"CAP_SYS_BOOT"},
						},
						Options: OptionsConfig{
							NoRoot:  true,
							EnvKeep: []string{"TERM", "LANG"},
							Path: PathConfig{
								Mode: "fixed",
								Dirs: []string{"/usr/sbin", "/usr/bin"},
							},
						},
					},
				},
			},
			{
				Name:  "net-admin",
				Users: []string{"netops"},
				Tasks: []TaskConfig{
					{
						ID:       "capture",
						Commands: []string{"/usr/bin/tcpdump"},
						Capabilities: CapabilitiesConfig{
							Ambient: []string{"CAP_NET_RAW", "CAP_NET_ADMIN"},
						},
						Options: OptionsConfig{
							NoRoot:   true,
							EnvKeep:  []string{"TERM", "LANG", "LC_*"},
							EnvCheck: []string{"TZ"},
						},
					},
				},
			},
		},
	}
}
