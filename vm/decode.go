package vm

import (
	"fmt"

	"github.com/jpsantos/simple86/isa"
)

// wordLen returns how many words an opcode's encoding occupies in
// memory: 1 for 16-bit ops, 2 for 32-bit, 3 for 48-bit (spec §4.H
// step 3).
func wordLen(code isa.OpCode) (int16, error) {
	switch code.SizeBits() {
	case 16:
		return 1, nil
	case 32:
		return 2, nil
	case 48:
		return 3, nil
	default:
		return 0, fmt.Errorf("vm: opcode %v has no defined word length", code)
	}
}

// Decoded is one fetched-and-decoded instruction: its opcode, operand
// tag, the raw operand words read from the instruction stream, and the
// IP value to resume at after dispatch (spec §4.H steps 1-3).
type Decoded struct {
	Code   isa.OpCode
	OpType isa.OperandType
	Op1    uint16
	Op2    uint16
	NextIP int16
}

// Fetch reads and decodes the instruction at ip (spec §4.H steps 1-3):
// the word at ip splits into opcode (high byte) and operand type (low
// byte); op1/op2 follow at ip+1/ip+2 as needed by the opcode's word
// length.
func Fetch(mem *Memory, ip int16) (Decoded, error) {
	head, err := mem.Read(ip)
	if err != nil {
		return Decoded{}, fmt.Errorf("vm: fetch at ip=%d: %w", ip, err)
	}

	d := Decoded{
		Code:   isa.OpCode(head >> 8),
		OpType: isa.OperandType(head & 0x00ff),
	}

	length, err := wordLen(d.Code)
	if err != nil {
		return Decoded{}, fmt.Errorf("vm: fetch at ip=%d: %w", ip, err)
	}
	d.NextIP = ip + length

	if length >= 2 {
		d.Op1, err = mem.Read(ip + 1)
		if err != nil {
			return Decoded{}, fmt.Errorf("vm: fetch op1 at ip=%d: %w", ip, err)
		}
	}
	if length >= 3 {
		d.Op2, err = mem.Read(ip + 2)
		if err != nil {
			return Decoded{}, fmt.Errorf("vm: fetch op2 at ip=%d: %w", ip, err)
		}
	}
	return d, nil
}

// readOperand resolves one operand's value by kind: a register's
// current contents, the word at a memory address, or an immediate
// value taken directly from the instruction stream.
func readOperand(regs *Registers, mem *Memory, kind isa.OperandKind, raw uint16) (uint16, error) {
	switch kind {
	case isa.KindReg:
		return regs.Get(isa.Register(raw))
	case isa.KindMem:
		return mem.Read(int16(raw))
	case isa.KindImm:
		return raw, nil
	default:
		return 0, fmt.Errorf("vm: no operand to read for kind %v", kind)
	}
}

// writeOperand stores a value into a register or memory operand. An
// immediate operand cannot be a write destination.
func writeOperand(regs *Registers, mem *Memory, kind isa.OperandKind, raw, value uint16) error {
	switch kind {
	case isa.KindReg:
		return regs.Set(isa.Register(raw), value)
	case isa.KindMem:
		return mem.Write(int16(raw), value)
	default:
		return fmt.Errorf("vm: kind %v is not a writable operand", kind)
	}
}
