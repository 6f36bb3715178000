// Package kernel speaks the wire protocol between the execution engine and
// a kernel process. Frames are newline-delimited JSON over the process's
// stdio: requests travel to stdin on the shell channel, and the kernel
// writes correlated replies (shell) plus broadcast traffic (iopub) to
// stdout. Every broadcast names the request it belongs to via parent_id.
package kernel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Channel names. Shell carries request/reply pairs; iopub carries the
// published side effects of executing code.
const (
	ChannelShell = "shell"
	ChannelIOPub = "iopub"
)

// Message types.
const (
	TypeExecuteRequest  = "execute_request"
	TypeExecuteReply    = "execute_reply"
	TypeShutdownRequest = "shutdown_request"
	TypeShutdownReply   = "shutdown_reply"

	TypeStatus        = "status"
	TypeExecuteInput  = "execute_input"
	TypeStream        = "stream"
	TypeExecuteResult = "execute_result"
	TypeDisplayData   = "display_data"
	TypeError         = "error"
)

// Kernel execution states announced in status messages.
const (
	StateStarting = "starting"
	StateBusy     = "busy"
	StateIdle     = "idle"
)

// Reply statuses in an execute_reply.
const (
	ReplyOK      = "ok"
	ReplyError   = "error"
	ReplyAborted = "aborted"
)

// Message is one protocol frame.
type Message struct {
	Channel  string          `json:"channel"`
	ID       string          `json:"id"`
	ParentID string          `json:"parent_id,omitempty"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content,omitempty"`
}

// NewRequest builds a shell-channel request with a fresh message id.
func NewRequest(msgType string, content any) (*Message, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encoding %s content: %w", msgType, err)
	}
	return &Message{
		Channel: ChannelShell,
		ID:      newMessageID(),
		Type:    msgType,
		Content: raw,
	}, nil
}

// DecodeContent unmarshals the frame's content into out.
func (m *Message) DecodeContent(out any) error {
	if len(m.Content) == 0 {
		return fmt.Errorf("%s message has no content", m.Type)
	}
	if err := json.Unmarshal(m.Content, out); err != nil {
		return fmt.Errorf("decoding %s content: %w", m.Type, err)
	}
	return nil
}

// ExecuteRequestContent carries one cell's code.
type ExecuteRequestContent struct {
	Code         string `json:"code"`
	Silent       bool   `json:"silent"`
	StoreHistory bool   `json:"store_history"`
	StopOnError  bool   `json:"stop_on_error"`
}

// ExecuteReplyContent reports how an execution finished. Status is one of
// the Reply constants; the exception fields are set when Status is "error".
type ExecuteReplyContent struct {
	Status         string   `json:"status"`
	ExecutionCount int      `json:"execution_count"`
	EName          string   `json:"ename,omitempty"`
	EValue         string   `json:"evalue,omitempty"`
	Traceback      []string `json:"traceback,omitempty"`
}

// StatusContent announces a kernel state transition on iopub.
type StatusContent struct {
	ExecutionState string `json:"execution_state"`
}

// StreamContent carries kernel stdout or stderr text.
type StreamContent struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// DisplayContent carries a rendered mime bundle. execute_result frames also
// set the execution counter.
type DisplayContent struct {
	Data           map[string]any `json:"data"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ExecutionCount int            `json:"execution_count,omitempty"`
}

// ErrorContent reports an exception raised by user code.
type ErrorContent struct {
	EName     string   `json:"ename"`
	EValue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// ShutdownRequestContent asks the kernel to exit.
type ShutdownRequestContent struct {
	Restart bool `json:"restart"`
}

func newMessageID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("reading random bytes for message id: %v", err))
	}
	return hex.EncodeToString(b[:])
}
