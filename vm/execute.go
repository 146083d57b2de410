package vm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jpsantos/simple86/isa"
)

// Machine bundles the register file and memory with the I/O streams the
// READ/WRITE/DUMP instructions use, and an optional step budget so a
// runaway program (an infinite loop with no HALT) can be stopped instead
// of hanging the host process forever. The original machine has no such
// guard; it is an addition this reimplementation carries since spec.md's
// Non-goals never mention disabling it.
type Machine struct {
	Regs   *Registers
	Mem    *Memory
	Stdin  *bufio.Reader
	Stdout io.Writer

	// MaxSteps caps the number of fetch/decode/execute cycles Run will
	// perform before giving up with an error. Zero means unlimited.
	MaxSteps int

	steps int
}

// NewMachine returns a Machine with fresh registers and memory, reading
// from stdin and writing to stdout.
func NewMachine(stdin io.Reader, stdout io.Writer) *Machine {
	return &Machine{
		Regs:   NewRegisters(),
		Mem:    NewMemory(),
		Stdin:  bufio.NewReader(stdin),
		Stdout: stdout,
	}
}

// Load installs an executable binary image into memory and resets IP to
// the image's entry point.
func (m *Machine) Load(image []byte) error {
	entryIP, err := m.Mem.Load(image)
	if err != nil {
		return err
	}
	m.Regs.IP = entryIP
	return nil
}

// Halted reports whether the fetch/decode loop's terminal condition
// holds: IP >= MEMORY_LIMIT (spec §4.H).
func (m *Machine) Halted() bool {
	return int(m.Regs.IP) >= isa.MemoryLimit
}

// Step performs one fetch/decode/execute cycle (spec §4.H): it reads
// the instruction at IP, advances IP past it, then dispatches to
// Execute. Execute may further modify IP (jumps, call, ret, halt).
func (m *Machine) Step() error {
	d, err := Fetch(m.Mem, m.Regs.IP)
	if err != nil {
		return err
	}
	m.Regs.IP = d.NextIP
	return Execute(m, d)
}

// Run drives the fetch/decode loop to completion (spec §4.H): it steps
// until IP >= MEMORY_LIMIT, or MaxSteps is exceeded.
func (m *Machine) Run() error {
	for !m.Halted() {
		if m.MaxSteps > 0 && m.steps >= m.MaxSteps {
			return fmt.Errorf("vm: exceeded step budget of %d instructions", m.MaxSteps)
		}
		m.steps++
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is a value-typed view of the machine's register file and a
// memory window, suitable for rendering or serializing without handing
// out a live pointer into the machine's state.
type Snapshot struct {
	AX, BX, CX uint16
	BP, SP, IP int16
	ZF, SF     bool
	Halted     bool

	MemoryBase  int16
	MemoryWords []uint16
}

// Snapshot captures the current register file plus a window of memory
// starting at base, clamped to the machine's address space.
func (m *Machine) Snapshot(base int16, count int) Snapshot {
	s := Snapshot{
		AX: m.Regs.AX, BX: m.Regs.BX, CX: m.Regs.CX,
		BP: m.Regs.BP, SP: m.Regs.SP, IP: m.Regs.IP,
		ZF: m.Regs.ZF, SF: m.Regs.SF,
		Halted:     m.Halted(),
		MemoryBase: base,
	}
	for i := 0; i < count; i++ {
		w, err := m.Mem.Read(base + int16(i))
		if err != nil {
			break
		}
		s.MemoryWords = append(s.MemoryWords, w)
	}
	return s
}

// Execute carries out one decoded instruction's effect (spec §4.G).
func Execute(m *Machine, d Decoded) error {
	regs, mem := m.Regs, m.Mem
	aKind, bKind := d.OpType.Kinds()

	switch d.Code {
	case isa.MOV:
		// A memory-kind source is the resolved address of a label or dw
		// variable, not a dereference: spec's MOV AX,_x end-to-end case
		// loads _x's own address into AX, the same way a jump target
		// resolves to an address rather than the word stored there.
		var src uint16
		var err error
		if bKind == isa.KindMem {
			src = d.Op2
		} else {
			src, err = readOperand(regs, mem, bKind, d.Op2)
		}
		if err != nil {
			return err
		}
		return writeOperand(regs, mem, aKind, d.Op1, src)

	case isa.ADD:
		return binaryArith(regs, mem, aKind, bKind, d.Op1, d.Op2, func(a, b int16) int16 { return a + b })
	case isa.SUB:
		return binaryArith(regs, mem, aKind, bKind, d.Op1, d.Op2, func(a, b int16) int16 { return a - b })
	case isa.AND:
		return binaryArith(regs, mem, aKind, bKind, d.Op1, d.Op2, func(a, b int16) int16 { return a & b })
	case isa.OR:
		return binaryArith(regs, mem, aKind, bKind, d.Op1, d.Op2, func(a, b int16) int16 { return a | b })

	case isa.NOT:
		v, err := readOperand(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		result := ^int16(v)
		regs.UpdateFlags(result)
		return writeOperand(regs, mem, aKind, d.Op1, uint16(result))

	case isa.CMP:
		a, err := readOperand(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		b, err := readOperand(regs, mem, bKind, d.Op2)
		if err != nil {
			return err
		}
		regs.UpdateFlags(int16(a) - int16(b))
		return nil

	case isa.MUL:
		return execMul(regs, mem, aKind, d.Op1)
	case isa.DIV:
		return execDiv(regs, mem, aKind, d.Op1)

	case isa.JMP:
		t, err := jumpTarget(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		regs.IP = int16(t)
		return nil
	case isa.JZ:
		return condJump(regs, mem, aKind, d.Op1, regs.ZF)
	case isa.JS:
		return condJump(regs, mem, aKind, d.Op1, regs.SF)

	case isa.CALL:
		t, err := jumpTarget(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		regs.SP--
		if err := mem.Write(regs.SP, uint16(regs.IP)); err != nil {
			return err
		}
		regs.IP = int16(t)
		return nil

	case isa.RET:
		v, err := mem.Read(regs.SP)
		if err != nil {
			return err
		}
		regs.IP = int16(v)
		regs.SP++
		return nil

	case isa.PUSH:
		v, err := readOperand(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		regs.SP--
		return mem.Write(regs.SP, v)

	case isa.POP:
		v, err := mem.Read(regs.SP)
		if err != nil {
			return err
		}
		regs.SP++
		return writeOperand(regs, mem, aKind, d.Op1, v)

	case isa.READ:
		v, err := readHex(m.Stdin)
		if err != nil {
			return err
		}
		regs.UpdateFlags(int16(v))
		return writeOperand(regs, mem, aKind, d.Op1, v)

	case isa.WRITE:
		v, err := readOperand(regs, mem, aKind, d.Op1)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(m.Stdout, "%04x  \n", v)
		return err

	case isa.DUMP:
		if _, err := fmt.Fprintln(m.Stdout, DumpHeader()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(m.Stdout, regs.Dump())
		return err

	case isa.HALT:
		regs.IP = isa.MemoryLimit + 1
		return nil

	default:
		return fmt.Errorf("vm: opcode %v has no execution semantics", d.Code)
	}
}

// binaryArith implements the dst,src arithmetic/logical instructions
// (ADD, SUB, AND, OR): read both operands, apply op, update flags, and
// write the result back to dst.
func binaryArith(regs *Registers, mem *Memory, aKind, bKind isa.OperandKind, op1, op2 uint16, op func(a, b int16) int16) error {
	a, err := readOperand(regs, mem, aKind, op1)
	if err != nil {
		return err
	}
	b, err := readOperand(regs, mem, bKind, op2)
	if err != nil {
		return err
	}
	result := op(int16(a), int16(b))
	regs.UpdateFlags(result)
	return writeOperand(regs, mem, aKind, op1, uint16(result))
}

// execMul implements MUL src (spec §4.G): a register or immediate
// source multiplies the full AX; a memory source multiplies only AL,
// against the whole word read at M[src].
func execMul(regs *Registers, mem *Memory, kind isa.OperandKind, raw uint16) error {
	if kind == isa.KindMem {
		v, err := mem.Read(int16(raw))
		if err != nil {
			return err
		}
		al, _ := regs.Get(isa.AL)
		return regs.Set(isa.AX, al*v)
	}
	src, err := readOperand(regs, mem, kind, raw)
	if err != nil {
		return err
	}
	regs.AX = regs.AX * src
	return nil
}

// execDiv implements DIV src (spec §4.G): a register or immediate
// source divides the full AX, leaving the quotient in AX and the
// remainder in BX; a memory source divides AX by M[src], leaving the
// quotient in AL and the remainder in AH.
func execDiv(regs *Registers, mem *Memory, kind isa.OperandKind, raw uint16) error {
	if kind == isa.KindMem {
		v, err := mem.Read(int16(raw))
		if err != nil {
			return err
		}
		if v == 0 {
			return fmt.Errorf("vm: division by zero")
		}
		al := byte(regs.AX / v)
		ah := byte(regs.AX % v)
		regs.AX = uint16(ah)<<8 | uint16(al)
		return nil
	}
	src, err := readOperand(regs, mem, kind, raw)
	if err != nil {
		return err
	}
	if src == 0 {
		return fmt.Errorf("vm: division by zero")
	}
	quotient := regs.AX / src
	remainder := regs.AX % src
	regs.AX = quotient
	regs.BX = remainder
	return nil
}

// jumpTarget resolves a JMP/CALL/JZ/JS operand to the address it should
// set IP to. A label or dw variable's operand type is frozen at
// memory-kind (its token began with "_"), and that word already *is*
// the resolved target address, not something to dereference — the
// same way MOV's memory-kind source is handled above. A register or
// immediate operand (a computed jump target) is read normally.
func jumpTarget(regs *Registers, mem *Memory, kind isa.OperandKind, raw uint16) (uint16, error) {
	if kind == isa.KindMem {
		return raw, nil
	}
	return readOperand(regs, mem, kind, raw)
}

// condJump implements JZ/JS: jump to the target only if the named flag
// is set.
func condJump(regs *Registers, mem *Memory, kind isa.OperandKind, raw uint16, flag bool) error {
	if !flag {
		return nil
	}
	t, err := jumpTarget(regs, mem, kind, raw)
	if err != nil {
		return err
	}
	regs.IP = int16(t)
	return nil
}

// readHex reads one whitespace-delimited hexadecimal token from the
// machine's input stream, for the READ instruction.
func readHex(r *bufio.Reader) (uint16, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				break
			}
			return 0, fmt.Errorf("vm: read: %w", err)
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if len(tok) == 0 {
				continue
			}
			break
		}
		tok = append(tok, b)
	}
	var v uint16
	if _, err := fmt.Sscanf(string(tok), "%x", &v); err != nil {
		return 0, fmt.Errorf("vm: read: invalid hex input %q: %w", tok, err)
	}
	return v, nil
}
