package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/louisbranch/mcptoolbox/internal/platform/timeouts"
)

// DefaultVersionCommand is run when no command is configured.
const DefaultVersionCommand = "go version"

// CommandProber runs a command and reports its trimmed stdout as the version.
type CommandProber struct {
	// Command holds the executable followed by its arguments.
	Command []string
	// Timeout bounds the subprocess; zero uses timeouts.VersionProbe.
	Timeout time.Duration
	// Env is appended to the server environment for the subprocess.
	Env []string
}

// NewCommandProber splits command on whitespace. An empty command falls back
// to DefaultVersionCommand.
func NewCommandProber(command string, timeout time.Duration) CommandProber {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = strings.Fields(DefaultVersionCommand)
	}
	return CommandProber{Command: fields, Timeout: timeout}
}

// Version implements VersionProber.
func (p CommandProber) Version(ctx context.Context) (string, error) {
	if len(p.Command) == 0 {
		return "", errors.New("version command is empty")
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = timeouts.VersionProbe
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}
	// Grandchildren holding the pipes open must not outlive the deadline.
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if parent.Err() != nil {
		return "", fmt.Errorf("%s stopped: %w", p.Command[0], parent.Err())
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%s timed out after %s", p.Command[0], timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if stderr := strings.TrimSpace(string(exitErr.Stderr)); stderr != "" {
				return "", fmt.Errorf("run %s: %w: %s", p.Command[0], err, stderr)
			}
		}
		return "", fmt.Errorf("run %s: %w", p.Command[0], err)
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return "", fmt.Errorf("%s printed no version", p.Command[0])
	}
	return version, nil
}
