// Package rights renders the read-only enumeration of an identity's
// resolved rights for info mode. It never touches process state.
package rights

import (
	"fmt"
	"io"
	"strings"

	"github.com/victoralfred/caprun/policy"
)

// Reporter renders rights reports at a restricted detail level: only
// rules the identity itself matches are ever shown.
type Reporter struct {
	store policy.Store
}

// NewReporter creates a reporter over the policy store.
func NewReporter(store policy.Store) *Reporter {
	return &Reporter{store: store}
}

// Report writes the identity's rights to w.
func (r *Reporter) Report(w io.Writer, username string, groups []string, roleHint string) error {
	report, err := r.store.DescribeRights(username, groups, roleHint)
	if err != nil {
		return fmt.Errorf("describing rights: %w", err)
	}

	if len(report.Roles) == 0 {
		fmt.Fprintf(w, "No rights granted to %s\n", username)
		return nil
	}

	fmt.Fprintf(w, "Rights for %s:\n", username)
	for _, role := range report.Roles {
		fmt.Fprintf(w, "Role: %s (via %s)\n", role.Role, role.MatchedBy)
		for _, task := range role.Tasks {
			fmt.Fprintf(w, "  Task: %s\n", task.Task)
			fmt.Fprintf(w, "    Commands: %s\n", strings.Join(task.Commands, ", "))
			if !task.Caps.Granted().IsEmpty() || !task.Caps.Bounding.IsEmpty() {
				fmt.Fprintf(w, "    Capabilities: %s\n", task.Caps)
			}
			if task.NoRoot {
				fmt.Fprintf(w, "    Lockdown: no-root\n")
			}
		}
	}
	return nil
}
