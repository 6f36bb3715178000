package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willingc/papermill/internal/nbformat"
)

// shutdownGrace is how long Shutdown waits for a kernel to exit on its own
// before killing it.
const shutdownGrace = 5 * time.Second

// Session is a live connection to one kernel. It owns the message pump that
// splits incoming frames into the shell (reply) and iopub (broadcast)
// streams, and it guarantees the process is reaped on Shutdown.
type Session struct {
	proc    Proc
	group   *errgroup.Group
	shellCh chan *Message
	iopubCh chan *Message

	closed    chan struct{}
	closeOnce sync.Once
}

// Start launches a kernel from its spec and waits for it to announce
// readiness on iopub. Every failure path kills and reaps the process before
// returning.
func Start(ctx context.Context, launcher Launcher, spec *Spec, startupTimeout time.Duration) (*Session, error) {
	proc, err := launcher.Launch(spec)
	if err != nil {
		return nil, &StartupError{Err: err}
	}

	s := &Session{
		proc:    proc,
		group:   &errgroup.Group{},
		shellCh: make(chan *Message, 16),
		iopubCh: make(chan *Message, 64),
		closed:  make(chan struct{}),
	}
	s.group.Go(s.readLoop)

	if err := s.awaitReady(ctx, startupTimeout); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Session) awaitReady(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return &StartupError{Timeout: timeout}
		case <-s.proc.Done():
			if procErr := s.proc.Err(); procErr != nil {
				return &StartupError{Err: fmt.Errorf("kernel exited during startup: %w", procErr)}
			}
			return &StartupError{Err: errors.New("kernel exited during startup")}
		case msg := <-s.iopubCh:
			if msg.Type != TypeStatus {
				continue
			}
			var status StatusContent
			if err := msg.DecodeContent(&status); err != nil {
				continue
			}
			if status.ExecutionState == StateIdle {
				return nil
			}
		}
	}
}

// readLoop pumps frames from the kernel into the channel pair until the
// stream ends or the session closes.
func (s *Session) readLoop() error {
	for {
		msg, raw, err := s.proc.Transport().ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		slog.Debug("kernel frame", "channel", msg.Channel, "type", msg.Type, "bytes", len(raw))

		var target chan *Message
		switch msg.Channel {
		case ChannelShell:
			target = s.shellCh
		case ChannelIOPub:
			target = s.iopubCh
		default:
			slog.Debug("dropping frame on unknown channel", "channel", msg.Channel)
			continue
		}

		select {
		case target <- msg:
		case <-s.closed:
			return nil
		}
	}
}

// ExecuteResult is everything one execution produced. Status mirrors the
// kernel's reply; a kernel-side exception is data here, not a Go error.
type ExecuteResult struct {
	Status         string
	ExecutionCount int
	Outputs        []nbformat.Output
	EName          string
	EValue         string
	Traceback      []string
}

// Errored reports whether the kernel raised an exception.
func (r *ExecuteResult) Errored() bool { return r.Status == ReplyError }

// Execute runs one cell's code to completion. It sends the request, drains
// the correlated iopub traffic into outputs in publish order until the
// kernel goes idle again, and reads the reply. Frames correlated to other
// requests are discarded.
func (s *Session) Execute(ctx context.Context, code string) (*ExecuteResult, error) {
	req, err := NewRequest(TypeExecuteRequest, ExecuteRequestContent{
		Code:         code,
		StoreHistory: true,
		StopOnError:  true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.proc.Transport().WriteMessage(req); err != nil {
		return nil, &DeadError{Err: err}
	}

	res := &ExecuteResult{}
	var gotReply, gotIdle bool
	for !gotReply || !gotIdle {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.proc.Done():
			return nil, &DeadError{Err: s.proc.Err()}
		case msg := <-s.shellCh:
			if msg.ParentID != req.ID {
				slog.Debug("dropping stale shell frame", "type", msg.Type, "parent_id", msg.ParentID)
				continue
			}
			if msg.Type != TypeExecuteReply {
				continue
			}
			var reply ExecuteReplyContent
			if err := msg.DecodeContent(&reply); err != nil {
				return nil, err
			}
			res.Status = reply.Status
			res.ExecutionCount = reply.ExecutionCount
			res.EName = reply.EName
			res.EValue = reply.EValue
			res.Traceback = reply.Traceback
			gotReply = true
		case msg := <-s.iopubCh:
			if msg.ParentID != req.ID {
				slog.Debug("dropping stale iopub frame", "type", msg.Type, "parent_id", msg.ParentID)
				continue
			}
			idle, err := collectIOPub(msg, res)
			if err != nil {
				return nil, err
			}
			if idle {
				gotIdle = true
			}
		}
	}
	return res, nil
}

// collectIOPub folds one broadcast frame into the result. It reports true
// once the kernel announces it is idle for this request.
func collectIOPub(msg *Message, res *ExecuteResult) (idle bool, err error) {
	switch msg.Type {
	case TypeStatus:
		var status StatusContent
		if err := msg.DecodeContent(&status); err != nil {
			return false, err
		}
		return status.ExecutionState == StateIdle, nil
	case TypeStream:
		var stream StreamContent
		if err := msg.DecodeContent(&stream); err != nil {
			return false, err
		}
		res.Outputs = append(res.Outputs, nbformat.NewStreamOutput(stream.Name, stream.Text))
	case TypeExecuteResult:
		var disp DisplayContent
		if err := msg.DecodeContent(&disp); err != nil {
			return false, err
		}
		res.Outputs = append(res.Outputs, nbformat.NewExecuteResult(disp.ExecutionCount, disp.Data))
	case TypeDisplayData:
		var disp DisplayContent
		if err := msg.DecodeContent(&disp); err != nil {
			return false, err
		}
		res.Outputs = append(res.Outputs, nbformat.NewDisplayData(disp.Data))
	case TypeError:
		var ec ErrorContent
		if err := msg.DecodeContent(&ec); err != nil {
			return false, err
		}
		res.Outputs = append(res.Outputs, nbformat.NewErrorOutput(ec.EName, ec.EValue, ec.Traceback))
	case TypeExecuteInput:
		// Echo of our own request, nothing to record.
	default:
		slog.Debug("ignoring iopub frame", "type", msg.Type)
	}
	return false, nil
}

// Interrupt asks the kernel to abandon the cell it is currently running.
func (s *Session) Interrupt() error {
	return s.proc.Interrupt()
}

// Shutdown asks the kernel to exit, waits out a short grace period, then
// kills it. The process is always reaped. Safe to call repeatedly and on
// every exit path.
func (s *Session) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closed) })

	if req, err := NewRequest(TypeShutdownRequest, ShutdownRequestContent{}); err == nil {
		// Best effort; the kernel may already be gone.
		_ = s.proc.Transport().WriteMessage(req)
	}

	timer := time.NewTimer(shutdownGrace)
	defer timer.Stop()
	select {
	case <-s.proc.Done():
	case <-timer.C:
		_ = s.proc.Kill()
		<-s.proc.Done()
	case <-ctx.Done():
		_ = s.proc.Kill()
		<-s.proc.Done()
	}

	_ = s.group.Wait()
	return nil
}
