package vm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/binfmt"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/vm"
)

func assembleToImage(t *testing.T, lines ...string) []byte {
	t.Helper()
	var records []isa.Record
	for i, l := range lines {
		records = append(records, asmline.ParseLine(l, i+1)...)
	}
	out := assembler.Assemble(records)
	img, err := binfmt.Encode(out)
	require.NoError(t, err)
	return img
}

func newMachine(t *testing.T, stdin string) (*vm.Machine, *strings.Builder) {
	t.Helper()
	var stdout strings.Builder
	m := vm.NewMachine(strings.NewReader(stdin), &stdout)
	return m, &stdout
}

func TestExecute_ImmediateMoveAndDump(t *testing.T) {
	img := assembleToImage(t, "mov ax, 00ff", "dump", "hlt")
	m, stdout := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	// IP already points past DUMP itself (word 3, 1 word wide) to word 4
	// by the time DUMP executes: the fetch loop advances IP before
	// dispatch (mov ax,00ff occupies words 0-2; dump occupies word 3).
	assert.Equal(t, "00ff  0000  0000  03e8  03e8  0004  0000  0000  ", lines[1])
}

func TestExecute_AddSetsZeroFlag(t *testing.T) {
	img := assembleToImage(t, "mov ax, 0000", "add ax, 0000", "hlt")
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.True(t, m.Regs.ZF)
	assert.False(t, m.Regs.SF)
}

func TestExecute_LoopWithJZ(t *testing.T) {
	// cx counts down from 3 to 0; ax tallies how many iterations ran.
	img := assembleToImage(t,
		"mov cx, 0003",
		"mov ax, 0000",
		"_top: cmp cx, 0000",
		"jz _done",
		"add ax, 0001",
		"sub cx, 0001",
		"jmp _top",
		"_done: hlt",
	)
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.EqualValues(t, 3, m.Regs.AX)
	assert.EqualValues(t, 0, m.Regs.CX)
	assert.True(t, m.Regs.ZF)
}

func TestExecute_DwVariableAddress(t *testing.T) {
	img := assembleToImage(t,
		"mov ax, _x",
		"dump",
		"hlt",
		"dw _x",
	)
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	// mov (3 words) + dump (1 word) + hlt (1 word) = 5 words, so _x is
	// placed at word address 5, past every emitted instruction.
	assert.EqualValues(t, 5, m.Regs.AX)
}

func TestExecute_ReadThenWrite(t *testing.T) {
	img := assembleToImage(t, "read ax", "write ax", "hlt")
	m, stdout := newMachine(t, "00ab\n")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.EqualValues(t, 0x00ab, m.Regs.AX)
	assert.Equal(t, "00ab  \n", stdout.String())
}

func TestExecute_CallAndRet(t *testing.T) {
	img := assembleToImage(t,
		"call _sub",
		"hlt",
		"_sub: mov bx, 0001",
		"ret",
	)
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.EqualValues(t, 1, m.Regs.BX)
}

func TestExecute_PushPop(t *testing.T) {
	img := assembleToImage(t,
		"mov ax, 0007",
		"push ax",
		"pop bx",
		"hlt",
	)
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.EqualValues(t, 7, m.Regs.BX)
	assert.EqualValues(t, isa.MemoryLimit, m.Regs.SP)
}

func TestExecute_MulAndDivRegisterPath(t *testing.T) {
	img := assembleToImage(t,
		"mov ax, 0006",
		"mov bx, 0002",
		"mul bx",
		"div bx",
		"hlt",
	)
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	// ax = 6 * 2 = 12, then ax = 12 / 2 = 6 remainder 0 in bx.
	assert.EqualValues(t, 6, m.Regs.AX)
	assert.EqualValues(t, 0, m.Regs.BX)
}

func TestExecute_MaxStepsGuard(t *testing.T) {
	img := assembleToImage(t, "_top: jmp _top")
	m, _ := newMachine(t, "")
	m.MaxSteps = 10
	require.NoError(t, m.Load(img))

	err := m.Run()
	assert.Error(t, err)
}

func TestExecute_NotComplementsAndUpdatesFlags(t *testing.T) {
	img := assembleToImage(t, "mov ax, 0000", "not ax", "hlt")
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Run())

	assert.EqualValues(t, 0xffff, m.Regs.AX)
	assert.True(t, m.Regs.SF)
}

func TestMachine_Snapshot(t *testing.T) {
	img := assembleToImage(t, "mov ax, 002a", "hlt")
	m, _ := newMachine(t, "")
	require.NoError(t, m.Load(img))
	require.NoError(t, m.Step())

	snap := m.Snapshot(0, 4)
	assert.EqualValues(t, 0x2a, snap.AX)
	assert.False(t, snap.Halted)
	assert.EqualValues(t, 0, snap.MemoryBase)
	assert.Len(t, snap.MemoryWords, 4)
}
