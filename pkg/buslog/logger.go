package buslog

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"
)

// Logger receives captured frames. Implementations must be safe for
// concurrent use.
type Logger interface {
	Log(Record)
}

// StreamLogger writes records to a stream.
type StreamLogger struct {
	lock    sync.Mutex
	w       io.Writer
	encoder *cbor.Encoder
	closed  bool
	failed  bool
}

// NewStreamLogger creates a StreamLogger.
func NewStreamLogger(w io.Writer) *StreamLogger {
	return &StreamLogger{w: w, encoder: NewEncoder(w)}
}

// NewFileLogger appends records to the file at path.
func NewFileLogger(path string) (*StreamLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return NewStreamLogger(f), nil
}

// Log implements Logger. Encoding errors are reported once.
func (l *StreamLogger) Log(r Record) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.closed {
		return
	}
	if err := l.encoder.Encode(r); err != nil && !l.failed {
		l.failed = true
		glog.Errorf("buslog: %v", err)
	}
}

// Close closes the underlying stream if it's a Closer. Later records
// are dropped.
func (l *StreamLogger) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ Logger = (*StreamLogger)(nil)
