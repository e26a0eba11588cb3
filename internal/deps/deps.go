package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the supervisor relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement on PATH. Available entries carry
// the resolved path in Detail so daemon status can show where a tool came
// from.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch path, err := exec.LookPath(cmd); {
		case cmd == "":
			status.Detail = "no command configured"
		case err != nil:
			status.Detail = fmt.Sprintf("%s not found on PATH", cmd)
		default:
			status.Available = true
			status.Detail = path
		}
		results = append(results, status)
	}
	return results
}
