package gui

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/binfmt"
	"github.com/jpsantos/simple86/debugger"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/vm"
)

func newTestDebugger(t *testing.T, lines ...string) *debugger.Debugger {
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

func TestGUI_InitializeViews(t *testing.T) {
	dbg := newTestDebugger(t, "mov ax, 0001", "hlt")

	testApp := test.NewApp()
	defer testApp.Quit()

	g := &GUI{Debugger: dbg, App: testApp, breakpoints: []string{}}
	g.initializeViews()

	if g.RegisterView == nil {
		t.Error("RegisterView not created")
	}
	if g.DisassemblyView == nil {
		t.Error("DisassemblyView not created")
	}
	if g.MemoryView == nil {
		t.Error("MemoryView not created")
	}
	if g.StackView == nil {
		t.Error("StackView not created")
	}
	if g.BreakpointsList == nil {
		t.Error("BreakpointsList not created")
	}
}

func TestGUI_RegisterViewShowsState(t *testing.T) {
	dbg := newTestDebugger(t, "mov ax, 002a", "hlt")
	if err := dbg.VM.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	testApp := test.NewApp()
	defer testApp.Quit()

	g := &GUI{Debugger: dbg, App: testApp, breakpoints: []string{}}
	g.initializeViews()
	g.updateRegisters()

	text := g.RegisterView.Text()
	if !strings.Contains(text, "002a") {
		t.Errorf("expected register view to show AX=002a, got %q", text)
	}
}

func TestGUI_BreakpointManagement(t *testing.T) {
	dbg := newTestDebugger(t, "mov ax, 0001", "hlt")

	testApp := test.NewApp()
	defer testApp.Quit()

	g := &GUI{Debugger: dbg, App: testApp, breakpoints: []string{}}
	g.initializeViews()

	if len(g.breakpoints) != 0 {
		t.Errorf("expected 0 breakpoints, got %d", len(g.breakpoints))
	}

	g.addBreakpoint()
	if len(g.breakpoints) != 1 {
		t.Errorf("expected 1 breakpoint after adding, got %d", len(g.breakpoints))
	}

	g.clearBreakpoints()
	if len(g.breakpoints) != 0 {
		t.Errorf("expected 0 breakpoints after clearing, got %d", len(g.breakpoints))
	}
}

func TestGUI_StepProgram(t *testing.T) {
	dbg := newTestDebugger(t, "mov ax, 002a", "hlt")

	testApp := test.NewApp()
	defer testApp.Quit()

	g := &GUI{Debugger: dbg, App: testApp, breakpoints: []string{}}
	g.initializeViews()

	g.stepProgram()

	if dbg.VM.Regs.AX != 0x2a {
		t.Errorf("expected AX=0x2a after step, got 0x%04x", dbg.VM.Regs.AX)
	}
}
