// Package deps checks that the external tools the pipeline shells out to are
// installed and runnable.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var ErrToolMissing = errors.New("required tool unavailable")

// versionTimeout bounds a single "--version" probe.
const versionTimeout = 10 * time.Second

// Requirement defines an external tool setsplit relies on.
type Requirement struct {
	Name        string
	Command     string
	VersionFlag string // e.g. "-version" or "--version"; empty skips the probe
	Description string
	Optional    bool
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries resolves every requirement on PATH and, when a version flag
// is set, runs it to make sure the binary actually executes.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved

		if req.VersionFlag != "" {
			version, err := probeVersion(ctx, resolved, req.VersionFlag)
			if err != nil {
				status.Detail = err.Error()
				results = append(results, status)
				continue
			}
			status.Version = version
		}

		status.Available = true
		results = append(results, status)
	}
	return results
}

// Require returns an error naming every unavailable non-optional tool.
func Require(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if s.Available || s.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
}

func probeVersion(ctx context.Context, binary, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, flag)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s failed: %v", binary, flag, err)
	}

	scanner := bufio.NewScanner(&out)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}
