package kernel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/willingc/papermill/internal/nbformat"
)

func startFake(t *testing.T, fake *FakeKernel) *Session {
	t.Helper()
	s, err := Start(context.Background(), fake, &Spec{Argv: []string{"fake"}}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// ---------------------------------------------------------------------------
// Startup
// ---------------------------------------------------------------------------

func TestStart_ReadyAfterAnnounce(t *testing.T) {
	s := startFake(t, &FakeKernel{})
	require.NotNil(t, s)
}

func TestStart_StartupTimeout(t *testing.T) {
	fake := &FakeKernel{SilentStart: true}

	_, err := Start(context.Background(), fake, &Spec{Argv: []string{"fake"}}, 50*time.Millisecond)
	require.Error(t, err)

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 50*time.Millisecond, se.Timeout)
	assert.Contains(t, err.Error(), "did not become ready")
}

type failingLauncher struct{ err error }

func (l *failingLauncher) Launch(*Spec) (Proc, error) { return nil, l.err }

func TestStart_LaunchFailure(t *testing.T) {
	launchErr := errors.New("exec: \"python3\": executable file not found")

	_, err := Start(context.Background(), &failingLauncher{err: launchErr}, &Spec{Argv: []string{"python3"}}, time.Second)
	require.Error(t, err)

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, launchErr)
}

type dyingLauncher struct{ exitErr error }

func (l *dyingLauncher) Launch(*Spec) (Proc, error) {
	p, _ := newFakeWiring()
	p.exit(l.exitErr)
	return p, nil
}

func TestStart_KernelExitsDuringStartup(t *testing.T) {
	exitErr := errors.New("exit status 127")

	_, err := Start(context.Background(), &dyingLauncher{exitErr: exitErr}, &Spec{Argv: []string{"fake"}}, time.Second)
	require.Error(t, err)

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "exited during startup")
	assert.ErrorIs(t, err, exitErr)
}

// ---------------------------------------------------------------------------
// Execute
// ---------------------------------------------------------------------------

func TestExecute_CollectsOutputsInPublishOrder(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) {
			r.Stream(nbformat.StreamStdout, "hello\n")
			r.Display(map[string]any{"image/png": "aGk="})
			r.Result(map[string]any{"text/plain": "42"})
		},
	}
	s := startFake(t, fake)

	res, err := s.Execute(context.Background(), "print('hello'); 42")
	require.NoError(t, err)

	assert.Equal(t, ReplyOK, res.Status)
	assert.False(t, res.Errored())
	assert.Equal(t, 1, res.ExecutionCount)

	require.Len(t, res.Outputs, 3)
	assert.Equal(t, nbformat.OutputTypeStream, res.Outputs[0].OutputType)
	assert.Equal(t, "hello\n", res.Outputs[0].PlainText())
	assert.Equal(t, nbformat.OutputTypeDisplayData, res.Outputs[1].OutputType)
	assert.Equal(t, nbformat.OutputTypeExecuteResult, res.Outputs[2].OutputType)
	assert.Equal(t, "42", res.Outputs[2].PlainText())
}

func TestExecute_CountAdvancesAcrossRequests(t *testing.T) {
	s := startFake(t, &FakeKernel{})

	first, err := s.Execute(context.Background(), "a = 1")
	require.NoError(t, err)
	second, err := s.Execute(context.Background(), "b = 2")
	require.NoError(t, err)

	assert.Equal(t, 1, first.ExecutionCount)
	assert.Equal(t, 2, second.ExecutionCount)
}

func TestExecute_KernelExceptionIsDataNotError(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) {
			r.Stream(nbformat.StreamStdout, "before the crash\n")
			r.Error("ValueError", "bad input", "Traceback (most recent call last):", "ValueError: bad input")
		},
	}
	s := startFake(t, fake)

	res, err := s.Execute(context.Background(), "raise ValueError('bad input')")
	require.NoError(t, err, "a kernel-side exception is a result, not a transport failure")

	assert.True(t, res.Errored())
	assert.Equal(t, "ValueError", res.EName)
	assert.Equal(t, "bad input", res.EValue)
	require.Len(t, res.Outputs, 2)
	assert.True(t, res.Outputs[1].IsError())
}

func TestExecute_KernelDiesMidCell(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) {
			r.Stream(nbformat.StreamStdout, "partial")
			r.Die()
		},
	}
	s := startFake(t, fake)

	_, err := s.Execute(context.Background(), "os._exit(1)")
	require.Error(t, err)

	var de *DeadError
	assert.ErrorAs(t, err, &de)
}

func TestExecute_ContextDeadline(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) {
			r.BlockUntilInterrupt()
		},
	}
	s := startFake(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Execute(ctx, "while True: pass")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Unpark the fake so cleanup shutdown is prompt.
	require.NoError(t, s.Interrupt())
}

func TestInterrupt_UnblocksRunningCell(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) {
			r.BlockUntilInterrupt()
			r.Error("KeyboardInterrupt", "")
		},
	}
	s := startFake(t, fake)

	type outcome struct {
		res *ExecuteResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.Execute(context.Background(), "while True: pass")
		done <- outcome{res, err}
	}()

	require.NoError(t, s.Interrupt())

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.True(t, got.res.Errored())
		assert.Equal(t, "KeyboardInterrupt", got.res.EName)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupted cell never finished")
	}
}

func TestExecute_DropsUncorrelatedFrames(t *testing.T) {
	proc, kernelSide := newFakeWiring()
	s := &Session{
		proc:    proc,
		group:   &errgroup.Group{},
		shellCh: make(chan *Message, 16),
		iopubCh: make(chan *Message, 64),
		closed:  make(chan struct{}),
	}
	s.group.Go(s.readLoop)

	go func() {
		msg, _, err := kernelSide.ReadMessage()
		if err != nil {
			return
		}
		// Leftovers from an abandoned request arrive first.
		writeFrame(kernelSide, ChannelIOPub, TypeStream, "stale-parent", StreamContent{Name: nbformat.StreamStdout, Text: "old"})
		writeFrame(kernelSide, ChannelShell, TypeExecuteReply, "stale-parent", ExecuteReplyContent{Status: ReplyError, ExecutionCount: 7})

		announce(kernelSide, StateBusy, msg.ID)
		writeFrame(kernelSide, ChannelIOPub, TypeStream, msg.ID, StreamContent{Name: nbformat.StreamStdout, Text: "new"})
		writeFrame(kernelSide, ChannelShell, TypeExecuteReply, msg.ID, ExecuteReplyContent{Status: ReplyOK, ExecutionCount: 1})
		announce(kernelSide, StateIdle, msg.ID)
	}()

	res, err := s.Execute(context.Background(), "print('x')")
	require.NoError(t, err)

	assert.Equal(t, ReplyOK, res.Status)
	assert.Equal(t, 1, res.ExecutionCount)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, "new", res.Outputs[0].PlainText())

	require.NoError(t, proc.Kill())
	require.NoError(t, s.Shutdown(context.Background()))
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func TestShutdown_Idempotent(t *testing.T) {
	s := startFake(t, &FakeKernel{})

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestShutdown_AfterKernelDeath(t *testing.T) {
	fake := &FakeKernel{
		Handle: func(code string, r *FakeResponder) { r.Die() },
	}
	s := startFake(t, fake)

	_, err := s.Execute(context.Background(), "crash")
	require.Error(t, err)

	start := time.Now()
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), time.Second, "reaping a dead kernel must not wait out the grace period")
}
