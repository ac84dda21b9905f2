package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"corral/internal/compute"
)

var _ compute.HostSystem = (*HostSystem)(nil)

// HostSystem is an in-memory implementation of compute.HostSystem. Every
// map answers one probe kind; anything absent reads as missing, which is
// how detection code treats hosts without GPU tooling.
type HostSystem struct {
	CallRecorder
	mu       sync.Mutex
	paths    map[string]bool
	binaries map[string]bool
	files    map[string][]byte
	globs    map[string][]string
	runOut   map[string]string
	runErr   map[string]error
}

func NewHostSystem() *HostSystem {
	return &HostSystem{
		paths:    make(map[string]bool),
		binaries: make(map[string]bool),
		files:    make(map[string][]byte),
		globs:    make(map[string][]string),
		runOut:   make(map[string]string),
		runErr:   make(map[string]error),
	}
}

func (h *HostSystem) PathExists(path string) bool {
	h.record("PathExists", path)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paths[path]
}

func (h *HostSystem) LookPath(bin string) bool {
	h.record("LookPath", bin)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.binaries[bin]
}

func (h *HostSystem) ReadFile(path string) ([]byte, error) {
	h.record("ReadFile", path)
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return data, nil
}

func (h *HostSystem) Glob(pattern string) ([]string, error) {
	h.record("Glob", pattern)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.globs[pattern], nil
}

func (h *HostSystem) Run(ctx context.Context, bin string, args ...string) (string, error) {
	h.record("Run", bin, args)
	h.mu.Lock()
	defer h.mu.Unlock()

	key := runKey(bin, args)
	if err, ok := h.runErr[key]; ok {
		return "", err
	}
	out, ok := h.runOut[key]
	if !ok {
		return "", fmt.Errorf("no run response configured for %q", key)
	}
	return out, nil
}

// AddPath marks a filesystem path as present.
func (h *HostSystem) AddPath(path string) {
	h.mu.Lock()
	h.paths[path] = true
	h.mu.Unlock()
}

// AddBinary marks a binary as resolvable on PATH.
func (h *HostSystem) AddBinary(bin string) {
	h.mu.Lock()
	h.binaries[bin] = true
	h.mu.Unlock()
}

// AddFile sets the content ReadFile returns for path.
func (h *HostSystem) AddFile(path string, data []byte) {
	h.mu.Lock()
	h.files[path] = data
	h.mu.Unlock()
}

// AddGlob sets the matches Glob returns for pattern.
func (h *HostSystem) AddGlob(pattern string, matches ...string) {
	h.mu.Lock()
	h.globs[pattern] = matches
	h.mu.Unlock()
}

// SetRunResponse configures the output of one command invocation.
func (h *HostSystem) SetRunResponse(out string, bin string, args ...string) {
	h.mu.Lock()
	h.runOut[runKey(bin, args)] = out
	h.mu.Unlock()
}

// SetRunError makes one command invocation fail.
func (h *HostSystem) SetRunError(err error, bin string, args ...string) {
	h.mu.Lock()
	h.runErr[runKey(bin, args)] = err
	h.mu.Unlock()
}

func runKey(bin string, args []string) string {
	if len(args) == 0 {
		return bin
	}
	return bin + " " + strings.Join(args, " ")
}
