package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// kernelsDirEnv overrides the kernelspec search path.
const kernelsDirEnv = "PAPERMILL_KERNELS_DIR"

// Spec describes how to launch one kernel, mirroring the on-disk
// kernel.json shape.
type Spec struct {
	Argv        []string          `json:"argv"`
	DisplayName string            `json:"display_name"`
	Language    string            `json:"language"`
	Env         map[string]string `json:"env,omitempty"`

	// Dir is the working directory the kernel runs in. Not part of
	// kernel.json; set by the caller.
	Dir string `json:"-"`
}

// builtinSpecs lets the common Python kernel names resolve even on a
// machine with no kernelspec directories, by launching the companion
// kernel adapter module.
var builtinSpecs = map[string]*Spec{
	"python3": {
		Argv:        []string{"python3", "-m", "papermill_kernel"},
		DisplayName: "Python 3",
		Language:    "python",
	},
	"python": {
		Argv:        []string{"python3", "-m", "papermill_kernel"},
		DisplayName: "Python 3",
		Language:    "python",
	},
}

// DefaultSpecDirs returns the kernelspec search path. The override
// environment variable wins outright; otherwise the usual per-user and
// system locations are searched in order.
func DefaultSpecDirs() []string {
	if dir := os.Getenv(kernelsDirEnv); dir != "" {
		return []string{dir}
	}

	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "jupyter", "kernels"))
	}
	dirs = append(dirs,
		"/usr/local/share/jupyter/kernels",
		"/usr/share/jupyter/kernels",
	)
	return dirs
}

// ResolveSpec finds the named kernel's spec by scanning dirs for
// <name>/kernel.json, falling back to the built-in table. Names match
// case-insensitively, the way kernel names are conventionally compared.
func ResolveSpec(name string, dirs []string) (*Spec, error) {
	if name == "" {
		return nil, fmt.Errorf("kernel name is empty")
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, name, "kernel.json")
		spec, err := readSpecFile(path)
		if err == nil {
			return spec, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}

		// Directory listings let us match names case-insensitively.
		entries, listErr := os.ReadDir(dir)
		if listErr != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || !strings.EqualFold(entry.Name(), name) {
				continue
			}
			spec, err := readSpecFile(filepath.Join(dir, entry.Name(), "kernel.json"))
			if err == nil {
				return spec, nil
			}
		}
	}

	if spec, ok := builtinSpecs[strings.ToLower(name)]; ok {
		cp := *spec
		return &cp, nil
	}

	available, _ := ListSpecs(dirs)
	names := make([]string, 0, len(available))
	for n := range available {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no kernelspec named %q found (searched %s)", name, strings.Join(dirs, ", "))
	}
	return nil, fmt.Errorf("no kernelspec named %q found (available: %s)", name, strings.Join(names, ", "))
}

// ListSpecs scans the search dirs and returns every resolvable kernel by
// name, plus the built-in table. Earlier dirs shadow later ones, and any
// on-disk spec shadows a built-in of the same name.
func ListSpecs(dirs []string) (map[string]*Spec, error) {
	specs := map[string]*Spec{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := strings.ToLower(entry.Name())
			if _, ok := specs[name]; ok {
				continue
			}
			spec, err := readSpecFile(filepath.Join(dir, entry.Name(), "kernel.json"))
			if err != nil {
				continue
			}
			specs[name] = spec
		}
	}
	for name, spec := range builtinSpecs {
		if _, ok := specs[name]; !ok {
			cp := *spec
			specs[name] = &cp
		}
	}
	return specs, nil
}

func readSpecFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("kernelspec %s has an empty argv", path)
	}
	return &spec, nil
}
