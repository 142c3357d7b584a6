// Package policy maps an invoking identity to a capability decision
// through role-based rules loaded from YAML.
package policy

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/victoralfred/caprun/capability"
	"github.com/victoralfred/caprun/environ"
	"github.com/victoralfred/caprun/internal/match"
)

// ErrDenied is the deliberately generic denial. It never discloses
// which rule failed, to resist privilege probing.
var ErrDenied = errors.New("permission denied")

// Options are the execution options attached to a granted decision.
type Options struct {
	// NoRoot activates the no-root lockdown before exec.
	NoRoot bool

	// EnvKeep are variable name patterns propagated verbatim.
	EnvKeep []string

	// EnvCheck are variable name patterns propagated only when their
	// value passes validation.
	EnvCheck []string

	// Path selects how the child's search path is produced.
	Path environ.PathPolicy
}

// Decision is the outcome of policy resolution, computed once per
// invocation and never cached across invocations.
type Decision struct {
	// Granted reports whether the command may run. When false every
	// other field is zero.
	Granted bool

	// Role and Task identify the matching rule for auditing.
	Role string
	Task string

	// Caps is the capability triple to install.
	Caps capability.Triple

	// Options are the execution options for the run.
	Options Options
}

// Store resolves identities against the configured roles. It is
// read-only from the process's point of view.
type Store interface {
	// Resolve maps (identity, groups, command, role hint) to a
	// decision. A non-matching request yields a denied decision, not
	// an error; errors are reserved for store faults.
	Resolve(username string, groups []string, command, roleHint string) (Decision, error)

	// DescribeRights enumerates the rights the identity itself
	// matches, optionally restricted to one role. Rules the identity
	// does not match are never revealed.
	DescribeRights(username string, groups []string, roleHint string) (*RightsReport, error)
}

// RightsReport enumerates resolved rights for info mode.
type RightsReport struct {
	Username string
	Roles    []RoleRights
}

// RoleRights describes one role the identity matches.
type RoleRights struct {
	Role      string
	MatchedBy string
	Tasks     []TaskRights
}

// TaskRights describes one task within a matched role.
type TaskRights struct {
	Task     string
	Commands []string
	Caps     capability.Triple
	NoRoot   bool
}

// Match tiers, lower is stronger. An explicit role hint outranks both
// because it restricts the candidate set before matching.
const (
	tierExact = iota
	tierBasename
	tierPattern
)

// commandRule is one compiled command matcher within a task.
type commandRule struct {
	raw     string
	pattern *match.Pattern
}

// tier classifies how the rule matched a requested command, or -1.
func (r *commandRule) tier(command string) int {
	if r.pattern.IsLiteral() {
		if r.raw == command {
			return tierExact
		}
		if !strings.Contains(r.raw, "/") && filepath.Base(command) == r.raw {
			return tierBasename
		}
		return -1
	}
	if r.pattern.Match(command) {
		return tierPattern
	}
	return -1
}

type compiledTask struct {
	id       string
	rules    []commandRule
	commands []string
	caps     capability.Triple
	options  Options
}

type compiledRole struct {
	name   string
	users  map[string]bool
	groups map[string]bool
	tasks  []compiledTask
}

// matchedBy reports how the identity gains the role, or "" if it does
// not.
func (r *compiledRole) matchedBy(username string, groups []string) string {
	if r.users[username] {
		return "user"
	}
	for _, g := range groups {
		if r.groups[g] {
			return "group:" + g
		}
	}
	return ""
}

// CompiledStore is a validated, ready-to-use policy.
type CompiledStore struct {
	version  string
	hash     string
	roles    []compiledRole
	loadedAt time.Time
}

// NewCompiledStore compiles a parsed configuration.
func NewCompiledStore(config *Config) (*CompiledStore, error) {
	cs := &CompiledStore{
		version:  config.Version,
		loadedAt: time.Now(),
	}

	for _, rc := range config.Roles {
		role := compiledRole{
			name:   rc.Name,
			users:  make(map[string]bool, len(rc.Users)),
			groups: make(map[string]bool, len(rc.Groups)),
		}
		for _, u := range rc.Users {
			role.users[u] = true
		}
		for _, g := range rc.Groups {
			role.groups[g] = true
		}

		for _, tc := range rc.Tasks {
			task, err := compileTask(tc)
			if err != nil {
				return nil, fmt.Errorf("compiling role %s task %s: %w", rc.Name, tc.ID, err)
			}
			role.tasks = append(role.tasks, task)
		}

		cs.roles = append(cs.roles, role)
	}

	return cs, nil
}

func compileTask(tc TaskConfig) (compiledTask, error) {
	task := compiledTask{id: tc.ID, commands: tc.Commands}

	for _, c := range tc.Commands {
		p, err := match.Compile(c)
		if err != nil {
			return compiledTask{}, fmt.Errorf("command pattern %q: %w", c, err)
		}
		task.rules = append(task.rules, commandRule{raw: c, pattern: p})
	}

	// Ambient capabilities are implicitly inheritable.
	inherited := append([]string{}, tc.Capabilities.Inheritable...)
	inherited = append(inherited, tc.Capabilities.Ambient...)
	inheritable, err := capability.NewSet(inherited...)
	if err != nil {
		return compiledTask{}, err
	}

	ambient, err := capability.NewSet(tc.Capabilities.Ambient...)
	if err != nil {
		return compiledTask{}, err
	}

	boundingNames := tc.Capabilities.Bounding
	if len(boundingNames) == 0 {
		// Default: the bounding set is exactly what the task grants.
		boundingNames = inheritable.Names()
	}
	bounding, err := capability.NewSet(boundingNames...)
	if err != nil {
		return compiledTask{}, err
	}

	task.caps = capability.Triple{
		Inheritable: inheritable,
		Ambient:     ambient,
		Bounding:    bounding,
	}

	mode := environ.PathMode(tc.Options.Path.Mode)
	if mode == "" {
		mode = environ.PathFixed
	}
	dirs := tc.Options.Path.Dirs
	if mode == environ.PathFixed && len(dirs) == 0 {
		dirs = DefaultPathDirs()
	}

	task.options = Options{
		NoRoot:   tc.Options.NoRoot,
		EnvKeep:  tc.Options.EnvKeep,
		EnvCheck: tc.Options.EnvCheck,
		Path:     environ.PathPolicy{Mode: mode, Dirs: dirs},
	}

	return task, nil
}

// DefaultPathDirs is the fixed search path used when a task does not
// configure one.
func DefaultPathDirs() []string {
	return []string{"/usr/sbin", "/usr/bin", "/sbin", "/bin"}
}

// Resolve implements Store.Resolve. Candidate rules are drawn from all
// roles granting access to the identity; an explicit role hint
// restricts candidates to that single role and never widens scope.
// Ties resolve deterministically: exact command match beats basename,
// basename beats pattern, and the first-defined rule wins within a
// tier.
func (cs *CompiledStore) Resolve(username string, groups []string, command, roleHint string) (Decision, error) {
	best := Decision{}
	bestTier := -1

	for i := range cs.roles {
		role := &cs.roles[i]
		if roleHint != "" && role.name != roleHint {
			continue
		}
		if role.matchedBy(username, groups) == "" {
			continue
		}

		for j := range role.tasks {
			task := &role.tasks[j]
			for _, rule := range task.rules {
				tier := rule.tier(command)
				if tier < 0 {
					continue
				}
				if bestTier == -1 || tier < bestTier {
					bestTier = tier
					best = Decision{
						Granted: true,
						Role:    role.name,
						Task:    task.id,
						Caps:    task.caps,
						Options: task.options,
					}
				}
			}
		}
	}

	if bestTier == -1 {
		return Decision{}, nil
	}
	return best, nil
}

// DescribeRights implements Store.DescribeRights.
func (cs *CompiledStore) DescribeRights(username string, groups []string, roleHint string) (*RightsReport, error) {
	report := &RightsReport{Username: username}

	for i := range cs.roles {
		role := &cs.roles[i]
		if roleHint != "" && role.name != roleHint {
			continue
		}
		by := role.matchedBy(username, groups)
		if by == "" {
			continue
		}

		rr := RoleRights{Role: role.name, MatchedBy: by}
		for j := range role.tasks {
			task := &role.tasks[j]
			rr.Tasks = append(rr.Tasks, TaskRights{
				Task:     task.id,
				Commands: append([]string{}, task.commands...),
				Caps:     task.caps,
				NoRoot:   task.options.NoRoot,
			})
		}
		report.Roles = append(report.Roles, rr)
	}

	return report, nil
}

// Version returns the policy version for audit purposes.
func (cs *CompiledStore) Version() string {
	return cs.version
}
