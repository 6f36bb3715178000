// Package engine parameterizes notebooks and runs them against a live
// kernel, cell by cell, recording outputs and execution metadata as it
// goes. The notebook on disk always reflects whatever has executed so far,
// including when a run fails partway through.
package engine

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/willingc/papermill/internal/kernel"
	"github.com/willingc/papermill/internal/nbformat"
	"github.com/willingc/papermill/internal/parameters"
	"github.com/willingc/papermill/internal/storage"
	"github.com/willingc/papermill/internal/translators"
)

//go:generate go tool mockgen -source=engine.go -destination=mock_kernel_test.go -package=engine

// Version is recorded in executed notebooks under metadata.papermill.
const Version = "1.0.0"

const defaultStartupTimeout = 60 * time.Second

// Kernel is the engine's view of one live kernel session.
type Kernel interface {
	Execute(ctx context.Context, code string) (*kernel.ExecuteResult, error)
	Interrupt() error
	Shutdown(ctx context.Context) error
}

var _ Kernel = (*kernel.Session)(nil)

// KernelStarter opens a session for a resolved kernelspec.
type KernelStarter func(ctx context.Context, spec *kernel.Spec, startupTimeout time.Duration) (Kernel, error)

func defaultStarter(ctx context.Context, spec *kernel.Spec, startupTimeout time.Duration) (Kernel, error) {
	return kernel.Start(ctx, kernel.NewCommandLauncher(), spec, startupTimeout)
}

// ProgressListener receives progress updates while a notebook runs.
type ProgressListener func(event ProgressEvent)

// EventType identifies a progress event.
type EventType string

// EventType constants.
const (
	EventNotebookStart    EventType = "notebook_start"
	EventNotebookComplete EventType = "notebook_complete"
	EventCellStart        EventType = "cell_start"
	EventCellComplete     EventType = "cell_complete"
	EventCellSkipped      EventType = "cell_skipped"
)

// ProgressEvent is one progress update. CellIndex is zero-based and
// TotalCells counts every cell, executable or not, so listeners can render
// an accurate bar. Status holds a CellStatus value on cell events and a
// run Status on notebook_complete.
type ProgressEvent struct {
	EventType  EventType
	CellIndex  int
	TotalCells int
	Status     string
	DurationMs int64
	Details    map[string]any
}

// Runner executes notebooks.
type Runner struct {
	translators    *translators.Registry
	startKernel    KernelStarter
	startupTimeout time.Duration
	cellTimeout    time.Duration
	store          *storage.Registry
	specDirs       []string

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures a Runner.
type Option func(*Runner)

// WithTranslators swaps the translator registry used to render parameters.
func WithTranslators(reg *translators.Registry) Option {
	return func(r *Runner) {
		r.translators = reg
	}
}

// WithKernelStarter replaces how kernel sessions are opened.
func WithKernelStarter(start KernelStarter) Option {
	return func(r *Runner) {
		r.startKernel = start
	}
}

// WithStartupTimeout bounds how long a kernel may take to become ready.
func WithStartupTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.startupTimeout = d
	}
}

// WithCellTimeout bounds each cell's execution. Zero means no limit.
func WithCellTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.cellTimeout = d
	}
}

// WithStore replaces the storage registry used to read and write
// notebooks by ref.
func WithStore(store *storage.Registry) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithSpecDirs replaces the directories searched for kernelspecs.
func WithSpecDirs(dirs []string) Option {
	return func(r *Runner) {
		r.specDirs = dirs
	}
}

// NewRunner creates a runner with the default kernel launcher and
// translator registry.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		translators:    translators.Default,
		startKernel:    defaultStarter,
		startupTimeout: defaultStartupTimeout,
		store:          storage.NewRegistry(),
		specDirs:       kernel.DefaultSpecDirs(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// PrepareRequest describes how to parameterize one notebook.
type PrepareRequest struct {
	Notebook   *nbformat.Notebook
	Parameters *parameters.Map
	// KernelName overrides the notebook's own kernelspec when set.
	KernelName string
	InputPath  string
	OutputPath string
}

// Prepare renders the parameters in the notebook's language and injects
// them as a tagged cell after the first parameters cell, recording the
// injected values under metadata.papermill. The input notebook is left
// untouched.
func (r *Runner) Prepare(req *PrepareRequest) (*nbformat.Notebook, error) {
	nb := req.Notebook
	params := req.Parameters
	if params == nil {
		params = parameters.New()
	}

	kernelName := kernelNameFor(nb, req.KernelName)

	var out *nbformat.Notebook
	if params.Len() > 0 {
		tr, err := r.translators.Find(kernelName, nb.Language())
		if err != nil {
			return nil, err
		}
		source, err := translators.RenderParameters(tr, params)
		if err != nil {
			return nil, err
		}
		out = nbformat.InsertParameterCell(nb, source)
	} else {
		cp := *nb
		cp.Cells = make([]nbformat.Cell, len(nb.Cells))
		copy(cp.Cells, nb.Cells)
		out = &cp
	}

	out.Metadata = cloneMeta(out.Metadata)
	rec := map[string]any{}
	if old, ok := out.Metadata[recordKey].(map[string]any); ok {
		maps.Copy(rec, old)
	}
	rec["input_path"] = req.InputPath
	rec["output_path"] = req.OutputPath
	rec["version"] = Version
	if params.Len() > 0 {
		rec["parameters"] = params.Plain()
	}
	out.Metadata[recordKey] = rec
	return out, nil
}
