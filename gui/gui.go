// Package gui implements a fyne-based graphical front end for the
// Simple86 debugger: register/memory/stack/breakpoint panels, a
// disassembly view, a console, and toolbar controls.
package gui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/jpsantos/simple86/debugger"
	"github.com/jpsantos/simple86/isa"
)

// GUI is the graphical debugger front end wrapped around a
// debugger.Debugger.
type GUI struct {
	Debugger *debugger.Debugger
	App      fyne.App
	Window   fyne.Window

	DisassemblyView *widget.TextGrid
	RegisterView    *widget.TextGrid
	MemoryView      *widget.TextGrid
	StackView       *widget.TextGrid
	BreakpointsList *widget.List
	ConsoleOutput   *widget.TextGrid
	StatusLabel     *widget.Label

	Toolbar *widget.Toolbar

	MemoryAddress int16

	breakpoints []string

	consoleBuffer strings.Builder
	consoleMutex  sync.Mutex
}

// consoleWriter redirects the machine's stdout to the GUI console pane.
type consoleWriter struct {
	gui *GUI
}

func (w *consoleWriter) Write(p []byte) (int, error) {
	w.gui.consoleMutex.Lock()
	w.gui.consoleBuffer.Write(p)
	w.gui.consoleMutex.Unlock()

	w.gui.updateConsole()
	return len(p), nil
}

// Run builds and shows the GUI, blocking until the window closes.
func Run(dbg *debugger.Debugger) {
	g := newGUI(dbg)
	g.Window.ShowAndRun()
}

func newGUI(dbg *debugger.Debugger) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("Simple86 Debugger")

	g := &GUI{
		Debugger:    dbg,
		App:         myApp,
		Window:      myWindow,
		breakpoints: []string{},
	}

	g.initializeViews()
	g.buildLayout()
	g.setupToolbar()

	dbg.VM.Stdout = &consoleWriter{gui: g}

	myWindow.Resize(fyne.NewSize(1000, 700))
	return g
}

func (g *GUI) initializeViews() {
	g.DisassemblyView = widget.NewTextGrid()
	g.updateDisassembly()

	g.RegisterView = widget.NewTextGrid()
	g.updateRegisters()

	g.MemoryView = widget.NewTextGrid()
	g.updateMemory()

	g.StackView = widget.NewTextGrid()
	g.updateStack()

	g.BreakpointsList = widget.NewList(
		func() int { return len(g.breakpoints) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.breakpoints[id])
		},
	)

	g.ConsoleOutput = widget.NewTextGrid()
	g.ConsoleOutput.SetText("")

	g.StatusLabel = widget.NewLabel("Ready")
}

func (g *GUI) buildLayout() {
	disasmPanel := container.NewBorder(
		widget.NewLabel("Disassembly"), nil, nil, nil,
		container.NewScroll(g.DisassemblyView),
	)
	registerPanel := container.NewBorder(
		widget.NewLabel("Registers"), nil, nil, nil,
		container.NewScroll(g.RegisterView),
	)
	breakpointsPanel := container.NewBorder(
		widget.NewLabel("Breakpoints"), nil, nil, nil,
		container.NewScroll(g.BreakpointsList),
	)
	memoryPanel := container.NewBorder(
		widget.NewLabel("Memory"), nil, nil, nil,
		container.NewScroll(g.MemoryView),
	)
	stackPanel := container.NewBorder(
		widget.NewLabel("Stack"), nil, nil, nil,
		container.NewScroll(g.StackView),
	)
	consolePanel := container.NewBorder(
		widget.NewLabel("Console"), nil, nil, nil,
		container.NewScroll(g.ConsoleOutput),
	)

	leftPanel := container.NewMax(disasmPanel)

	rightTop := container.NewVSplit(registerPanel, breakpointsPanel)
	rightTop.SetOffset(0.5)

	bottomTabs := container.NewAppTabs(
		container.NewTabItem("Memory", memoryPanel),
		container.NewTabItem("Stack", stackPanel),
		container.NewTabItem("Console", consolePanel),
	)

	rightPanel := container.NewVSplit(rightTop, bottomTabs)
	rightPanel.SetOffset(0.5)

	mainSplit := container.NewHSplit(leftPanel, rightPanel)
	mainSplit.SetOffset(0.55)

	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)

	content := container.NewBorder(g.Toolbar, statusBar, nil, nil, mainSplit)
	g.Window.SetContent(content)
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() { g.continueProgram() }),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() { g.stepProgram() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { g.addBreakpoint() }),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() { g.clearBreakpoints() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { g.refreshViews() }),
	)
}

func (g *GUI) updateViews() {
	g.updateDisassembly()
	g.updateRegisters()
	g.updateMemory()
	g.updateStack()
	g.updateBreakpoints()
	g.updateConsole()
}

func (g *GUI) updateDisassembly() {
	var sb strings.Builder
	ip := g.Debugger.VM.Regs.IP
	addr := ip
	for i := 0; i < 30 && int(addr) < isa.MemoryLimit; i++ {
		text, next, err := debugger.Disassemble(g.Debugger.VM.Mem, addr)
		if err != nil {
			break
		}
		marker := "  "
		if addr == ip {
			marker = "->"
		}
		if g.Debugger.Breakpoints.Get(addr) != nil {
			marker = "* "
		}
		sb.WriteString(fmt.Sprintf("%s %04d  %s\n", marker, addr, text))
		addr = next
	}
	g.DisassemblyView.SetText(sb.String())
}

func (g *GUI) updateRegisters() {
	regs := g.Debugger.VM.Regs
	var sb strings.Builder
	sb.WriteString("AX BX CX SP BP IP ZF SF\n")
	sb.WriteString(fmt.Sprintf("%04x %04x %04x %04x %04x %04x %04x %04x\n",
		regs.AX, regs.BX, regs.CX, uint16(regs.SP), uint16(regs.BP), uint16(regs.IP),
		boolToInt(regs.ZF), boolToInt(regs.SF)))
	g.RegisterView.SetText(sb.String())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (g *GUI) updateMemory() {
	var sb strings.Builder
	addr := g.MemoryAddress

	sb.WriteString(fmt.Sprintf("Memory at %04d:\n", addr))
	for i := int16(0); i < 16; i++ {
		word, err := g.Debugger.VM.Mem.Read(addr + i)
		if err != nil {
			break
		}
		sb.WriteString(fmt.Sprintf("%04d: %04x\n", addr+i, word))
	}
	g.MemoryView.SetText(sb.String())
}

func (g *GUI) updateStack() {
	var sb strings.Builder
	sp := g.Debugger.VM.Regs.SP

	sb.WriteString(fmt.Sprintf("Stack at SP=%04d:\n", sp))
	for i := int16(0); i < 16; i++ {
		addr := sp + i
		if int(addr) >= isa.MemoryLimit {
			break
		}
		word, err := g.Debugger.VM.Mem.Read(addr)
		if err != nil {
			break
		}
		prefix := "  "
		if i == 0 {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s%04d: %04x\n", prefix, addr, word))
	}
	g.StackView.SetText(sb.String())
}

func (g *GUI) updateBreakpoints() {
	list := g.Debugger.Breakpoints.List()
	g.breakpoints = make([]string, 0, len(list))
	for _, bp := range list {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		g.breakpoints = append(g.breakpoints, fmt.Sprintf("%04d (%s, hits=%d)", bp.Address, status, bp.HitCount))
	}
	g.BreakpointsList.Refresh()
}

func (g *GUI) updateConsole() {
	g.consoleMutex.Lock()
	defer g.consoleMutex.Unlock()
	g.ConsoleOutput.SetText(g.consoleBuffer.String())
}

func (g *GUI) stepProgram() {
	if g.Debugger.VM.Halted() {
		g.StatusLabel.SetText("Program has halted")
		return
	}
	if err := g.Debugger.VM.Step(); err != nil {
		g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
		g.updateViews()
		return
	}
	if g.Debugger.VM.Halted() {
		g.StatusLabel.SetText("Program halted")
	} else {
		g.StatusLabel.SetText(fmt.Sprintf("Stepped to IP=%04d", g.Debugger.VM.Regs.IP))
	}
	g.updateViews()
}

func (g *GUI) continueProgram() {
	g.StatusLabel.SetText("Running...")

	go func() {
		err := g.Debugger.ExecuteCommand("continue")
		if err != nil {
			g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
		} else if g.Debugger.VM.Halted() {
			g.StatusLabel.SetText("Program halted")
		} else {
			g.StatusLabel.SetText(fmt.Sprintf("Stopped at IP=%04d", g.Debugger.VM.Regs.IP))
		}
		g.updateViews()
	}()
}

func (g *GUI) addBreakpoint() {
	ip := g.Debugger.VM.Regs.IP
	bp := g.Debugger.Breakpoints.Add(ip)
	g.updateBreakpoints()
	g.StatusLabel.SetText(fmt.Sprintf("Breakpoint %d added at %04d", bp.ID, bp.Address))
}

func (g *GUI) clearBreakpoints() {
	for _, bp := range g.Debugger.Breakpoints.List() {
		g.Debugger.Breakpoints.Delete(bp.Address)
	}
	g.updateBreakpoints()
	g.StatusLabel.SetText("All breakpoints cleared")
}

func (g *GUI) refreshViews() {
	g.updateViews()
	g.StatusLabel.SetText("Views refreshed")
}
