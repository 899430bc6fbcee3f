package buslog

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("buslog encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("buslog decoder mode: %v", err))
	}
}

// EncodeRecord encodes a Record.
func EncodeRecord(r Record) ([]byte, error) {
	return encMode.Marshal(r)
}

// DecodeRecord decodes a Record.
func DecodeRecord(data []byte) (r Record, err error) {
	err = decMode.Unmarshal(data, &r)
	return
}

// NewEncoder creates an encoder writing records to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a decoder reading records from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
