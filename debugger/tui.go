package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jpsantos/simple86/isa"
)

// TUI is the text user interface wrapped around a Debugger: a register
// pane, a disassembly pane, an output log, and a command line.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout      *tview.Flex
	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	MemoryView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress int16
}

// NewTUI builds the interface around an existing Debugger.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{
		Debugger: d,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	top := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 3, 0, false).
		AddItem(mainContent, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.writeOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	if output != "" {
		t.writeOutput(output)
	}
	t.RefreshAll()
}

func (t *TUI) writeOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every pane from current machine state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateDisassemblyView()
	t.updateMemoryView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	t.RegisterView.Clear()
	regs := t.Debugger.VM.Regs
	fmt.Fprintf(t.RegisterView, "%s\n%s", regsHeaderColor(), regs.Dump())
}

func regsHeaderColor() string {
	return "[yellow]AX    BX    CX    SP    BP    IP    ZF    SF[white]"
}

func (t *TUI) updateDisassemblyView() {
	t.DisassemblyView.Clear()
	ip := t.Debugger.VM.Regs.IP
	addr := ip
	for i := 0; i < 20 && int(addr) < isa.MemoryLimit; i++ {
		text, next, err := Disassemble(t.Debugger.VM.Mem, addr)
		if err != nil {
			break
		}
		marker := "  "
		if addr == ip {
			marker = "->"
		}
		if t.Debugger.Breakpoints.Get(addr) != nil {
			marker = "* "
		}
		fmt.Fprintf(t.DisassemblyView, "%s %04d  %s\n", marker, addr, text)
		addr = next
	}
}

func (t *TUI) updateMemoryView() {
	t.MemoryView.Clear()
	for i := 0; i < 16; i++ {
		addr := t.MemoryAddress + int16(i)
		v, err := t.Debugger.VM.Mem.Read(addr)
		if err != nil {
			break
		}
		fmt.Fprintf(t.MemoryView, "%04d: %04x\n", addr, v)
	}
}

func (t *TUI) updateBreakpointsView() {
	t.BreakpointsView.Clear()
	for _, bp := range t.Debugger.Breakpoints.List() {
		fmt.Fprintf(t.BreakpointsView, "#%d  addr=%04d  hits=%d\n", bp.ID, bp.Address, bp.HitCount)
	}
}

// Run starts the interactive text UI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
