package assembler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/isa"
)

func parseAll(t *testing.T, lines ...string) []isa.Record {
	t.Helper()
	var records []isa.Record
	for i, l := range lines {
		records = append(records, asmline.ParseLine(l, i+1)...)
	}
	return records
}

func TestLayout_AssignsWordAddresses(t *testing.T) {
	records := parseAll(t,
		"mov ax, 0001", // 48 bits = 6 bytes -> 3 words, address 0
		"add bx, cx",   // address 3
		"hlt",          // address 6
	)
	assembler.Layout(records)

	require.Len(t, records, 3)
	assert.EqualValues(t, 0, records[0].Address)
	assert.EqualValues(t, 3, records[1].Address)
	assert.EqualValues(t, 6, records[2].Address)
}

func TestResolveLabels_ForwardLabelReference(t *testing.T) {
	records := parseAll(t,
		"jmp _top",
		"_top: hlt",
	)
	sizeBytes := assembler.Layout(records)
	assembler.ResolveLabels(records, sizeBytes)

	require.Len(t, records, 3)
	assert.Equal(t, "2", records[0].OpA) // jmp occupies 2 words, so _top lands at word address 2
}

func TestResolveLabels_VarPlacedAfterCode(t *testing.T) {
	records := parseAll(t,
		"mov ax, _x",
		"dw _x",
	)
	sizeBytes := assembler.Layout(records)
	assembler.ResolveLabels(records, sizeBytes)

	require.Len(t, records, 2)
	// mov is 48 bits = 6 bytes = 3 words, so _x sits at word address 3.
	assert.Equal(t, "3", records[0].OpB)
	assert.Equal(t, isa.Var, records[1].Kind)
	assert.EqualValues(t, 3, records[1].Address)
	assert.Equal(t, "_x", records[1].ID)
}

func TestAssemble_DropsLabels(t *testing.T) {
	records := parseAll(t,
		"_top: mov ax, 0001",
		"jmp _top",
	)
	out := assembler.Assemble(records)

	require.Len(t, out, 2)
	assert.Equal(t, isa.MOV, out[0].Code)
	assert.Equal(t, isa.JMP, out[1].Code)
	assert.Equal(t, "0", out[1].OpA) // _top resolves to word address 0
}

func TestWriteListing_SkipsLabels(t *testing.T) {
	records := parseAll(t, "_top: hlt")
	assembler.Layout(records)
	assembler.ResolveLabels(records, 0)

	var buf strings.Builder
	require.NoError(t, assembler.WriteListing(&buf, records))
	out := buf.String()
	assert.Contains(t, out, "HLT")
	assert.NotContains(t, out, "LABEL")
}
