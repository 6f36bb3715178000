package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/willingc/papermill/internal/kernel"
	"github.com/willingc/papermill/internal/nbformat"
	"github.com/willingc/papermill/internal/parameters"
)

// ExecuteRequest describes one notebook execution from an input ref to
// an output ref.
type ExecuteRequest struct {
	// InputRef and OutputRef name where the notebook comes from and
	// where executed state goes. Either can be a local path, an http(s)
	// or abs:// URL, or "-" for the standard streams. An empty
	// OutputRef runs without persisting.
	InputRef  string
	OutputRef string

	Parameters *parameters.Map

	// KernelName overrides the notebook's own kernelspec when set.
	KernelName string

	// WorkingDir is the directory the kernel process runs in. Empty
	// means inherit the engine's.
	WorkingDir string

	// PrepareOnly injects parameters and writes the result without
	// starting a kernel.
	PrepareOnly bool
}

// ErrNoKernel is returned when the notebook has no kernelspec and no
// kernel name was given.
var ErrNoKernel = errors.New("notebook does not name a kernel and none was given")

// ExecuteNotebook reads a notebook, injects parameters, runs it against
// a kernel, and persists executed state to the output ref after every
// cell. The result's notebook reflects the run even when err reports a
// cell failure; a nil result means the run never got as far as a
// parameterized notebook.
func (r *Runner) ExecuteNotebook(ctx context.Context, req *ExecuteRequest) (*ExecutionResult, error) {
	data, err := r.store.Read(ctx, req.InputRef)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.InputRef, err)
	}

	nb, err := nbformat.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", req.InputRef, err)
	}

	prepared, err := r.Prepare(&PrepareRequest{
		Notebook:   nb,
		Parameters: req.Parameters,
		KernelName: req.KernelName,
		InputPath:  req.InputRef,
		OutputPath: req.OutputRef,
	})
	if err != nil {
		return nil, err
	}

	persist := r.persister(ctx, req.OutputRef)

	if req.PrepareOnly {
		if persist != nil {
			if err := persist(prepared); err != nil {
				return nil, fmt.Errorf("saving prepared notebook: %w", err)
			}
		}
		return &ExecutionResult{Notebook: prepared, Status: StatusSucceeded}, nil
	}

	spec, err := r.resolveSpec(prepared, req.KernelName)
	if err != nil {
		return nil, err
	}
	spec.Dir = req.WorkingDir

	return r.Run(ctx, &RunRequest{Notebook: prepared, Spec: spec, Persist: persist})
}

// resolveSpec finds the kernelspec that will run the notebook.
func (r *Runner) resolveSpec(nb *nbformat.Notebook, override string) (*kernel.Spec, error) {
	name := kernelNameFor(nb, override)
	if name == "" {
		return nil, ErrNoKernel
	}
	return kernel.ResolveSpec(name, r.specDirs)
}

// persister serializes notebooks to ref, or is nil when ref is empty.
// Saves run on a context detached from cancellation: an interrupted run
// still writes its partial output.
func (r *Runner) persister(ctx context.Context, ref string) PersistFunc {
	if ref == "" {
		return nil
	}
	saveCtx := context.WithoutCancel(ctx)
	return func(nb *nbformat.Notebook) error {
		data, err := nbformat.Serialize(nb)
		if err != nil {
			return err
		}
		return r.store.Write(saveCtx, ref, data)
	}
}

// kernelNameFor is the kernel the notebook should run on: an explicit
// override first, then the notebook's own kernelspec.
func kernelNameFor(nb *nbformat.Notebook, override string) string {
	if override != "" {
		return override
	}
	if ks, ok := nb.Kernelspec(); ok {
		return ks.Name
	}
	return ""
}
