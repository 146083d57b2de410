package linker_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/linker"
	"github.com/jpsantos/simple86/object"
)

func assembleLines(lines ...string) []isa.Record {
	var records []isa.Record
	for i, l := range lines {
		records = append(records, asmline.ParseLine(l, i+1)...)
	}
	return assembler.Assemble(records)
}

func TestConcatenate_RebasesAcrossModules(t *testing.T) {
	modA := assembleLines("mov ax, 0001") // 3 words
	modB := assembleLines("hlt")          // 1 word, should land at address 3

	combined, sizeBytes := linker.Concatenate([][]isa.Record{modA, modB})
	require.Len(t, combined, 2)
	assert.EqualValues(t, 0, combined[0].Address)
	assert.EqualValues(t, 3, combined[1].Address)
	assert.Equal(t, 8, sizeBytes) // 6 bytes + 2 bytes
}

func TestLink_ResolvesCrossModuleLabel(t *testing.T) {
	modA := assembleLines("call _helper")
	modB := assembleLines("_helper: ret")

	out := linker.Link([][]isa.Record{modA, modB})
	require.Len(t, out, 2)
	assert.Equal(t, isa.CALL, out[0].Code)
	assert.Equal(t, "2", out[0].OpA) // call occupies 2 words
	assert.Equal(t, isa.RET, out[1].Code)
}

func TestLoadModule_RoundTripsThroughObjectFiles(t *testing.T) {
	records := assembleLines("mov ax, 0001", "hlt")
	path := filepath.Join(t.TempDir(), "mod.o86")
	require.NoError(t, object.WriteModule(path, records))

	got, err := linker.LoadModule(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestLoadModule_MissingFile(t *testing.T) {
	_, err := linker.LoadModule(filepath.Join(t.TempDir(), "missing.o86"))
	assert.Error(t, err)
}
