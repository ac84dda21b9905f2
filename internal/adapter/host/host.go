// Package host implements compute.HostSystem against the local machine:
// stat for paths, PATH lookup for binaries, CombinedOutput for tool runs.
package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"corral/internal/compute"
)

var _ compute.HostSystem = (*System)(nil)

// System is the production HostSystem.
type System struct{}

func NewSystem() *System { return &System{} }

func (*System) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (*System) LookPath(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

func (*System) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (*System) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Run executes a host binary and returns its combined output. A non-zero
// exit is an error carrying the output so callers can log what the tool
// said.
func (*System) Run(ctx context.Context, bin string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run %s %s: %w: %s",
			bin, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
