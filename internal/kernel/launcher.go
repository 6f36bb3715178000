package kernel

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Proc is the handle a Session drives: the frame transport plus process
// lifecycle control. Real kernels are child processes; tests swap in
// in-memory fakes.
type Proc interface {
	// Transport returns the frame transport connected to the kernel.
	Transport() *Transport
	// Interrupt asks the kernel to stop the cell it is running.
	Interrupt() error
	// Kill force-terminates the kernel.
	Kill() error
	// Done is closed once the kernel has exited and been reaped.
	Done() <-chan struct{}
	// Err reports the exit error, valid after Done is closed.
	Err() error
}

// Launcher starts kernel processes.
type Launcher interface {
	Launch(spec *Spec) (Proc, error)
}

// NewCommandLauncher returns the Launcher that runs kernels as child
// processes of this one, speaking the frame protocol over their stdio.
func NewCommandLauncher() Launcher {
	return commandLauncher{}
}

type commandLauncher struct{}

func (commandLauncher) Launch(spec *Spec) (Proc, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("kernelspec has an empty argv")
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening kernel stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening kernel stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening kernel stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting kernel %q: %w", spec.Argv[0], err)
	}

	p := &execProc{
		cmd:       cmd,
		transport: NewTransport(stdout, stdin),
		done:      make(chan struct{}),
	}

	// Kernel stderr is diagnostics, not protocol; mirror it to the log.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("kernel stderr", "line", scanner.Text())
		}
	}()

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

type execProc struct {
	cmd       *exec.Cmd
	transport *Transport
	done      chan struct{}
	waitErr   error
}

func (p *execProc) Transport() *Transport { return p.transport }

func (p *execProc) Interrupt() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(os.Interrupt)
}

func (p *execProc) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *execProc) Done() <-chan struct{} { return p.done }

func (p *execProc) Err() error { return p.waitErr }
