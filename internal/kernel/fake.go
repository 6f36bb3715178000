package kernel

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// FakeKernel is an in-process kernel that speaks the wire protocol over
// in-memory pipes. It doubles as a Launcher, so tests can drive a real
// Session without spawning a process.
type FakeKernel struct {
	// Handle produces the outputs and reply for one execute request. A nil
	// Handle makes every request succeed with no outputs.
	Handle func(code string, r *FakeResponder)
	// StartupDelay postpones the ready announcement.
	StartupDelay time.Duration
	// SilentStart suppresses the ready announcement entirely, so startup
	// deadlines can be exercised.
	SilentStart bool
}

var _ Launcher = (*FakeKernel)(nil)

// Launch wires up a new in-process kernel instance.
func (k *FakeKernel) Launch(*Spec) (Proc, error) {
	proc, kernelSide := newFakeWiring()
	go k.run(kernelSide, proc)
	return proc, nil
}

// newFakeWiring builds the client-side proc and the kernel-side transport
// joined by buffered pipes.
func newFakeWiring() (*fakeProc, *Transport) {
	toKernel := newBufferedPipe()
	toClient := newBufferedPipe()
	p := &fakeProc{
		transport: NewTransport(toClient, toKernel),
		done:      make(chan struct{}),
		interrupt: make(chan struct{}, 1),
		pipes:     []io.Closer{toKernel, toClient},
	}
	return p, NewTransport(toKernel, toClient)
}

func (k *FakeKernel) run(t *Transport, p *fakeProc) {
	if k.StartupDelay > 0 {
		time.Sleep(k.StartupDelay)
	}
	if !k.SilentStart {
		announce(t, StateStarting, "")
		announce(t, StateIdle, "")
	}

	execCount := 0
	for {
		msg, _, err := t.ReadMessage()
		if err != nil {
			p.exit(nil)
			return
		}

		switch msg.Type {
		case TypeExecuteRequest:
			var req ExecuteRequestContent
			if err := msg.DecodeContent(&req); err != nil {
				p.exit(err)
				return
			}
			announce(t, StateBusy, msg.ID)

			execCount++
			r := &FakeResponder{t: t, parentID: msg.ID, proc: p, count: execCount}
			if k.Handle != nil {
				k.Handle(req.Code, r)
			}
			if r.died {
				p.exit(errors.New("kernel crashed"))
				return
			}

			reply := ExecuteReplyContent{Status: ReplyOK, ExecutionCount: execCount}
			if r.errName != "" {
				reply.Status = ReplyError
				reply.EName = r.errName
				reply.EValue = r.errValue
				reply.Traceback = r.traceback
			}
			writeFrame(t, ChannelShell, TypeExecuteReply, msg.ID, reply)
			announce(t, StateIdle, msg.ID)

		case TypeShutdownRequest:
			writeFrame(t, ChannelShell, TypeShutdownReply, msg.ID, struct{}{})
			p.exit(nil)
			return
		}
	}
}

// FakeResponder is handed to a FakeKernel's Handle callback to emit the
// outputs for one request.
type FakeResponder struct {
	t        *Transport
	parentID string
	proc     *fakeProc
	count    int

	errName   string
	errValue  string
	traceback []string
	died      bool
}

// Stream publishes stream text on the named stream.
func (r *FakeResponder) Stream(name, text string) {
	writeFrame(r.t, ChannelIOPub, TypeStream, r.parentID, StreamContent{Name: name, Text: text})
}

// Result publishes an execute_result mime bundle.
func (r *FakeResponder) Result(data map[string]any) {
	writeFrame(r.t, ChannelIOPub, TypeExecuteResult, r.parentID, DisplayContent{
		Data:           data,
		ExecutionCount: r.count,
	})
}

// Display publishes a display_data mime bundle.
func (r *FakeResponder) Display(data map[string]any) {
	writeFrame(r.t, ChannelIOPub, TypeDisplayData, r.parentID, DisplayContent{Data: data})
}

// Error publishes an exception and makes the reply status "error".
func (r *FakeResponder) Error(ename, evalue string, traceback ...string) {
	r.errName, r.errValue, r.traceback = ename, evalue, traceback
	writeFrame(r.t, ChannelIOPub, TypeError, r.parentID, ErrorContent{
		EName:     ename,
		EValue:    evalue,
		Traceback: traceback,
	})
}

// Die terminates the kernel mid-request, before any reply is sent.
func (r *FakeResponder) Die() {
	r.died = true
}

// BlockUntilInterrupt parks the request until the client interrupts or
// kills the kernel, for exercising watchdog paths.
func (r *FakeResponder) BlockUntilInterrupt() {
	select {
	case <-r.proc.interrupt:
	case <-r.proc.done:
	}
}

func announce(t *Transport, state, parentID string) {
	writeFrame(t, ChannelIOPub, TypeStatus, parentID, StatusContent{ExecutionState: state})
}

func writeFrame(t *Transport, channel, msgType, parentID string, content any) {
	msg, err := NewRequest(msgType, content)
	if err != nil {
		return
	}
	msg.Channel = channel
	msg.ParentID = parentID
	_ = t.WriteMessage(msg)
}

type fakeProc struct {
	transport *Transport
	done      chan struct{}
	interrupt chan struct{}
	pipes     []io.Closer

	exitOnce sync.Once
	waitErr  error
}

var _ Proc = (*fakeProc)(nil)

func (p *fakeProc) Transport() *Transport { return p.transport }

func (p *fakeProc) Interrupt() error {
	select {
	case p.interrupt <- struct{}{}:
	default:
	}
	return nil
}

func (p *fakeProc) Kill() error {
	p.exit(errors.New("killed"))
	return nil
}

func (p *fakeProc) Done() <-chan struct{} { return p.done }

func (p *fakeProc) Err() error { return p.waitErr }

func (p *fakeProc) exit(err error) {
	p.exitOnce.Do(func() {
		p.waitErr = err
		for _, c := range p.pipes {
			_ = c.Close()
		}
		close(p.done)
	})
}

// bufferedPipe is an in-memory pipe with an unbounded buffer, standing in
// for the OS pipe between the engine and a kernel process. Writes never
// block on a busy peer; reads block until data or close.
type bufferedPipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

func newBufferedPipe() *bufferedPipe {
	p := &bufferedPipe{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *bufferedPipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.buf.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.buf.Len() == 0 {
		return 0, io.EOF
	}
	return p.buf.Read(b)
}

func (p *bufferedPipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	n, err := p.buf.Write(b)
	p.cond.Broadcast()
	return n, err
}

func (p *bufferedPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}
