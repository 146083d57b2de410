// Package vm implements the Simple86 virtual machine: the register
// file, word-addressed memory, per-instruction execution semantics, and
// the fetch/decode/dispatch loop (spec §4.F-§4.H).
package vm

import (
	"fmt"

	"github.com/jpsantos/simple86/isa"
)

// Registers holds the three general-purpose 16-bit registers (each
// addressable whole or as a high/low byte pair), the stack and base
// pointers, the instruction pointer, and the two condition flags.
//
// The original implementation's register setter had a copy/paste bug
// where writing BX actually wrote BP. Get/Set here switch explicitly on
// every isa.Register code, with no shared case, so each register's slot
// is unambiguous.
type Registers struct {
	AX, BX, CX uint16
	BP, SP, IP int16
	ZF, SF     bool
}

// NewRegisters returns a register file with BP and SP initialized to
// isa.MemoryLimit, matching the machine's documented reset state: the
// stack starts immediately past the end of memory and grows downward.
func NewRegisters() *Registers {
	return &Registers{
		BP: isa.MemoryLimit,
		SP: isa.MemoryLimit,
	}
}

// Get reads a register or half-register by its isa.Register code.
func (r *Registers) Get(reg isa.Register) (uint16, error) {
	switch reg {
	case isa.AX:
		return r.AX, nil
	case isa.AL:
		return r.AX & 0x00ff, nil
	case isa.AH:
		return r.AX >> 8, nil
	case isa.BX:
		return r.BX, nil
	case isa.BL:
		return r.BX & 0x00ff, nil
	case isa.BH:
		return r.BX >> 8, nil
	case isa.CX:
		return r.CX, nil
	case isa.CL:
		return r.CX & 0x00ff, nil
	case isa.CH:
		return r.CX >> 8, nil
	default:
		return 0, fmt.Errorf("vm: %v is not a readable register", reg)
	}
}

// Set writes a register or half-register by its isa.Register code. A
// half-register write preserves the other half of its parent register.
func (r *Registers) Set(reg isa.Register, value uint16) error {
	switch reg {
	case isa.AX:
		r.AX = value
	case isa.AL:
		r.AX = (r.AX & 0xff00) | (value & 0x00ff)
	case isa.AH:
		r.AX = (r.AX & 0x00ff) | (value << 8)
	case isa.BX:
		r.BX = value
	case isa.BL:
		r.BX = (r.BX & 0xff00) | (value & 0x00ff)
	case isa.BH:
		r.BX = (r.BX & 0x00ff) | (value << 8)
	case isa.CX:
		r.CX = value
	case isa.CL:
		r.CX = (r.CX & 0xff00) | (value & 0x00ff)
	case isa.CH:
		r.CX = (r.CX & 0x00ff) | (value << 8)
	default:
		return fmt.Errorf("vm: %v is not a writable register", reg)
	}
	return nil
}

// UpdateFlags sets ZF and SF from a computation's signed 16-bit result,
// per spec §4.G.
func (r *Registers) UpdateFlags(result int16) {
	r.ZF = result == 0
	r.SF = result < 0
}

// DumpHeader renders the DUMP instruction's column header row: each of
// the eight register names left-justified in a 6-wide field.
func DumpHeader() string {
	names := []string{"AX", "BX", "CX", "SP", "BP", "IP", "ZF", "SF"}
	var b []byte
	for _, n := range names {
		b = fmt.Appendf(b, "%-6s", n)
	}
	return string(b)
}

// Dump renders the full register file's value row the way the DUMP
// instruction prints it: AX BX CX SP BP IP ZF SF, each a 4-digit
// lowercase hex value followed by two spaces.
func (r *Registers) Dump() string {
	values := []uint16{r.AX, r.BX, r.CX, uint16(r.SP), uint16(r.BP), uint16(r.IP), uint16(boolToBit(r.ZF)), uint16(boolToBit(r.SF))}
	var b []byte
	for _, v := range values {
		b = fmt.Appendf(b, "%04x  ", v)
	}
	return string(b)
}

func boolToBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
