// Package debugger implements an interactive command-driven stepper for
// the Simple86 virtual machine: breakpoints, single-stepping, register
// and memory inspection, and a disassembly view, plus a tcell/tview text
// UI front end.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/vm"
)

// Debugger holds the machine under inspection together with breakpoint
// state, command history, and an output buffer the UI layer drains.
type Debugger struct {
	VM *vm.Machine

	Breakpoints *BreakpointManager
	History     []string
	LastCommand string
	Running     bool

	Output strings.Builder
}

// NewDebugger wraps an already-loaded machine.
func NewDebugger(m *vm.Machine) *Debugger {
	return &Debugger{
		VM:          m,
		Breakpoints: NewBreakpointManager(),
	}
}

// ExecuteCommand parses and runs one command line. An empty line repeats
// the last command, matching the original debugger's REPL convention.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History = append(d.History, cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun()
	case "continue", "c":
		return d.cmdContinue()
	case "step", "s", "si":
		return d.cmdStep()
	case "break", "b":
		return d.cmdBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "info", "i", "regs":
		d.cmdInfo()
		return nil
	case "print", "p":
		return d.cmdPrint(args)
	case "x", "examine":
		return d.cmdExamine(args)
	case "reset":
		d.cmdReset()
		return nil
	case "help", "h", "?":
		d.cmdHelp()
		return nil
	default:
		return fmt.Errorf("debugger: unknown command %q (type 'help' for a list)", cmd)
	}
}

// cmdRun drives Continue from whatever state the machine is in; it does
// not reset IP or any other register first.
func (d *Debugger) cmdRun() error {
	d.Running = true
	return d.cmdContinue()
}

// cmdContinue steps the machine until it halts or hits an enabled
// breakpoint. The instruction at the current IP is always executed
// first, so resuming from a breakpoint doesn't immediately re-trigger
// it.
func (d *Debugger) cmdContinue() error {
	d.Running = true
	for !d.VM.Halted() {
		if err := d.VM.Step(); err != nil {
			d.Running = false
			return err
		}
		if d.VM.Halted() {
			break
		}
		if bp := d.Breakpoints.Get(d.VM.Regs.IP); bp != nil && bp.Enabled {
			bp.HitCount++
			d.Printf("breakpoint %d hit at %d\n", bp.ID, bp.Address)
			d.Running = false
			return nil
		}
	}
	d.Running = false
	d.Printf("program halted\n")
	return nil
}

// cmdStep executes exactly one instruction.
func (d *Debugger) cmdStep() error {
	if d.VM.Halted() {
		d.Printf("program already halted\n")
		return nil
	}
	text, _, err := Disassemble(d.VM.Mem, d.VM.Regs.IP)
	if err == nil {
		d.Printf("%04d  %s\n", d.VM.Regs.IP, text)
	}
	return d.VM.Step()
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("debugger: usage: break <address>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr)
	d.Printf("breakpoint %d set at %d\n", bp.ID, bp.Address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("debugger: usage: delete <address>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if !d.Breakpoints.Delete(addr) {
		return fmt.Errorf("debugger: no breakpoint at %d", addr)
	}
	d.Printf("breakpoint at %d deleted\n", addr)
	return nil
}

func (d *Debugger) cmdInfo() {
	d.Printf("%s\n%s\n", vm.DumpHeader(), d.VM.Regs.Dump())
}

func (d *Debugger) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("debugger: usage: print <register>")
	}
	reg := isa.LookupRegister(strings.ToLower(args[0]))
	if reg == isa.NoReg {
		return fmt.Errorf("debugger: %q is not a register", args[0])
	}
	v, err := d.VM.Regs.Get(reg)
	if err != nil {
		return err
	}
	d.Printf("%s = 0x%04x\n", strings.ToUpper(args[0]), v)
	return nil
}

// cmdExamine prints count words of memory starting at addr (default 8).
func (d *Debugger) cmdExamine(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("debugger: usage: x <address> [count]")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	count := 8
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("debugger: invalid count %q: %w", args[1], err)
		}
		count = n
	}

	for i := 0; i < count; i++ {
		v, err := d.VM.Mem.Read(addr + int16(i))
		if err != nil {
			break
		}
		d.Printf("%04d: %04x\n", addr+int16(i), v)
	}
	return nil
}

func (d *Debugger) cmdReset() {
	d.VM.Regs = vm.NewRegisters()
	d.Printf("registers reset\n")
}

func (d *Debugger) cmdHelp() {
	d.Printf(`commands: run, continue, step, break <addr>, delete <addr>,
info, print <reg>, x <addr> [count], reset, help
`)
}

func parseAddr(tok string) (int16, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("debugger: invalid address %q: %w", tok, err)
	}
	return int16(n), nil
}

// Printf writes formatted output to the debugger's output buffer, the
// way the original debugger buffers text for its TUI's output pane.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	s := d.Output.String()
	d.Output.Reset()
	return s
}
