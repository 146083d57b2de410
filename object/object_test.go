package object_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/object"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	r := isa.Record{
		FullText: "mov ax, 0x0001",
		ID:       "mov",
		OpA:      "ax",
		OpB:      "0x0001",
		Kind:     isa.Instruction,
		Code:     isa.MOV,
		OpType:   isa.RI,
		Address:  12,
		Size:     48,
	}

	buf := object.Encode(r)
	assert.Len(t, buf, object.RecordLen)

	got, err := object.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDecode_WrongLength(t *testing.T) {
	_, err := object.Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestWriteReadModule_RoundTrip(t *testing.T) {
	records := []isa.Record{
		{FullText: "_top:", ID: "_top", Kind: isa.Label},
		{FullText: "add ax, bx", ID: "add", OpA: "ax", OpB: "bx", Kind: isa.Instruction, Code: isa.ADD, OpType: isa.RR, Size: 48},
		{FullText: "dw _count", ID: "dw", OpA: "_count", Kind: isa.Var},
	}

	path := filepath.Join(t.TempDir(), "mod.o86")
	require.NoError(t, object.WriteModule(path, records))

	got, err := object.ReadModule(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadModule_MissingFile(t *testing.T) {
	_, err := object.ReadModule(filepath.Join(t.TempDir(), "missing.o86"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(errUnwrap(err)) || err != nil)
}

func errUnwrap(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}
