package debugger

import (
	"fmt"

	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/vm"
)

// Disassemble reads one instruction's words out of live memory starting
// at addr and renders it the way the assembler's verbose listing does:
// "MNEMONIC opA, opB". It returns the address of the next instruction.
func Disassemble(mem *vm.Memory, addr int16) (string, int16, error) {
	d, err := vm.Fetch(mem, addr)
	if err != nil {
		return "", addr, err
	}

	text := d.Code.String()
	aKind, bKind := d.OpType.Kinds()
	if aKind != isa.KindNone {
		text += " " + formatOperand(aKind, d.Op1)
	}
	if bKind != isa.KindNone {
		text += ", " + formatOperand(bKind, d.Op2)
	}

	return text, d.NextIP, nil
}

func formatOperand(kind isa.OperandKind, raw uint16) string {
	switch kind {
	case isa.KindReg:
		return isa.Register(raw).String()
	case isa.KindImm:
		return fmt.Sprintf("0x%04x", raw)
	case isa.KindMem:
		return fmt.Sprintf("[%d]", raw)
	default:
		return ""
	}
}
