package kernel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Transport reads and writes protocol frames over a byte stream. Each frame
// is a single JSON document terminated by a newline.
type Transport struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex
}

// NewTransport wraps an io.Reader and io.Writer as a frame transport.
func NewTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// ReadMessage reads one frame. It also returns the raw line so callers can
// log the original payload.
func (t *Transport) ReadMessage() (*Message, []byte, error) {
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, err
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, nil, fmt.Errorf("invalid frame: %w", err)
	}
	return &msg, line, nil
}

// WriteMessage sends one frame, newline-delimited. Safe for concurrent use.
func (t *Transport) WriteMessage(msg *Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = t.writer.Write(data)
	return err
}
