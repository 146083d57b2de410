// Package object implements the fixed-layout object-record format the
// assembler emits and the linker consumes (spec §6.6). Each record is
// serialized back-to-back with no stream header.
//
// The original layout used the host's raw `int` width for the Kind/OpCode/
// OperandType fields, which is not portable across platforms. Per spec
// §6.6's migration note, this implementation fixes those three fields at
// 4 bytes little-endian instead, so record size is deterministic.
package object

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/jpsantos/simple86/isa"
)

// stringFieldLen is the NUL-padded width of each of the four text fields.
const stringFieldLen = 128

// RecordLen is the total encoded size of one record in bytes:
// four 128-byte text fields, three 4-byte enum fields, and two 2-byte
// integer fields.
const RecordLen = 4*stringFieldLen + 3*4 + 2 + 2

// Encode serializes a single Record into its fixed-layout object form.
func Encode(r isa.Record) []byte {
	buf := make([]byte, RecordLen)
	off := 0

	putString := func(s string) {
		copy(buf[off:off+stringFieldLen], s)
		off += stringFieldLen
	}
	putString(r.FullText)
	putString(r.ID)
	putString(r.OpA)
	putString(r.OpB)

	binary.LittleEndian.PutUint32(buf[off:], uint32(r.Kind))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.Code))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.OpType))
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], uint16(r.Address))
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], uint16(r.Size))
	off += 2

	return buf
}

// Decode parses one RecordLen-sized object record.
func Decode(buf []byte) (isa.Record, error) {
	if len(buf) != RecordLen {
		return isa.Record{}, fmt.Errorf("object: record must be %d bytes, got %d", RecordLen, len(buf))
	}

	var r isa.Record
	off := 0

	getString := func() string {
		field := buf[off : off+stringFieldLen]
		off += stringFieldLen
		n := 0
		for n < len(field) && field[n] != 0 {
			n++
		}
		return string(field[:n])
	}
	r.FullText = getString()
	r.ID = getString()
	r.OpA = getString()
	r.OpB = getString()

	r.Kind = isa.Kind(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	r.Code = isa.OpCode(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	r.OpType = isa.OperandType(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	r.Address = int16(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	r.Size = int16(binary.LittleEndian.Uint16(buf[off:]))

	return r, nil
}

// WriteModule writes a sequence of Records as an object module to path.
func WriteModule(path string, records []isa.Record) error {
	f, err := os.Create(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return fmt.Errorf("object: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		if _, err := w.Write(Encode(r)); err != nil {
			return fmt.Errorf("object: write %s: %w", path, err)
		}
	}
	return w.Flush()
}

// ReadModule reads every record from an object module file.
func ReadModule(path string) ([]isa.Record, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("object: open %s: %w", path, err)
	}
	defer f.Close()

	var records []isa.Record
	buf := make([]byte, RecordLen)
	r := bufio.NewReader(f)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("object: read %s: %w", path, err)
		}
		rec, err := Decode(buf)
		if err != nil {
			return nil, err
		}
		if rec.FullText == "" && rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
