package debugger_test

import (
	"strings"
	"testing"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/binfmt"
	"github.com/jpsantos/simple86/debugger"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/vm"
)

func newDebugger(t *testing.T, lines ...string) *debugger.Debugger {
	t.Helper()
	var records []isa.Record
	for i, l := range lines {
		records = append(records, asmline.ParseLine(l, i+1)...)
	}
	out := assembler.Assemble(records)
	img, err := binfmt.Encode(out)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	m := vm.NewMachine(strings.NewReader(""), &strings.Builder{})
	if err := m.Load(img); err != nil {
		t.Fatalf("load: %v", err)
	}
	return debugger.NewDebugger(m)
}

func TestNewDebugger(t *testing.T) {
	d := newDebugger(t, "hlt")
	if d.VM == nil {
		t.Fatal("VM not set")
	}
	if d.Breakpoints == nil {
		t.Fatal("Breakpoints not initialized")
	}
}

func TestDebugger_StepAdvancesIP(t *testing.T) {
	d := newDebugger(t, "mov ax, 0001", "hlt")

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if d.VM.Regs.AX != 1 {
		t.Errorf("expected AX=1, got %d", d.VM.Regs.AX)
	}
	if d.VM.Regs.IP != 3 {
		t.Errorf("expected IP=3 after a 48-bit instruction, got %d", d.VM.Regs.IP)
	}
}

func TestDebugger_BreakpointStopsContinue(t *testing.T) {
	d := newDebugger(t, "mov ax, 0001", "mov bx, 0002", "hlt")

	if err := d.ExecuteCommand("break 3"); err != nil {
		t.Fatalf("break: %v", err)
	}
	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if d.VM.Regs.IP != 3 {
		t.Errorf("expected execution to stop at breakpoint address 3, got IP=%d", d.VM.Regs.IP)
	}
	if d.VM.Halted() {
		t.Error("machine should not be halted yet")
	}

	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if !d.VM.Halted() {
		t.Error("expected machine to run to completion on second continue")
	}
}

func TestDebugger_DeleteBreakpoint(t *testing.T) {
	d := newDebugger(t, "mov ax, 0001", "hlt")

	if err := d.ExecuteCommand("break 3"); err != nil {
		t.Fatalf("break: %v", err)
	}
	if err := d.ExecuteCommand("delete 3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.Breakpoints.Get(3) != nil {
		t.Error("expected breakpoint to be removed")
	}
}

func TestDebugger_PrintRegister(t *testing.T) {
	d := newDebugger(t, "mov cx, 00ab", "hlt")
	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	d.GetOutput() // discard the step trace line

	if err := d.ExecuteCommand("print cx"); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "0x00ab") {
		t.Errorf("expected printed register value, got %q", out)
	}
}

func TestDebugger_ExamineMemory(t *testing.T) {
	d := newDebugger(t, "hlt")
	if err := d.ExecuteCommand("x 0 2"); err != nil {
		t.Fatalf("examine: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "0000:") {
		t.Errorf("expected memory dump starting at address 0, got %q", out)
	}
}

func TestDebugger_UnknownCommand(t *testing.T) {
	d := newDebugger(t, "hlt")
	if err := d.ExecuteCommand("bogus"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestDebugger_EmptyCommandRepeatsLast(t *testing.T) {
	d := newDebugger(t, "mov ax, 0001", "mov bx, 0002", "hlt")

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := d.ExecuteCommand(""); err != nil {
		t.Fatalf("repeat step: %v", err)
	}
	if d.VM.Regs.BX != 2 {
		t.Errorf("expected BX=2 after repeating step, got %d", d.VM.Regs.BX)
	}
}
