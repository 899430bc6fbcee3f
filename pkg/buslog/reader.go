package buslog

import (
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/robotalks/swali.go/pkg/vscp"
)

// Filter selects records. Zero fields match all.
type Filter struct {
	Direction *Direction
	// Nickname matches the sender of VSCP frames.
	Nickname *uint8
	// Class matches the VSCP class.
	Class *uint16
}

func (f *Filter) matches(r Record) bool {
	if f.Direction != nil && r.Direction != *f.Direction {
		return false
	}
	if f.Nickname == nil && f.Class == nil {
		return true
	}
	_, class, _, nick := vscp.DecodeID(r.ID)
	if f.Nickname != nil && nick != *f.Nickname {
		return false
	}
	if f.Class != nil && class != *f.Class {
		return false
	}
	return true
}

// Reader iterates records of a capture.
type Reader struct {
	r       io.Reader
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads all records from r.
func NewReader(r io.Reader, filter Filter) *Reader {
	return &Reader{r: r, decoder: NewDecoder(r), filter: filter}
}

// Open opens a capture file.
func Open(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, filter), nil
}

// Next returns the next matching record, or io.EOF at the end.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		if err := r.decoder.Decode(&rec); err != nil {
			return Record{}, err
		}
		if r.filter.matches(rec) {
			return rec, nil
		}
	}
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if c, ok := r.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
