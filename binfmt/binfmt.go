// Package binfmt implements the Simple86 executable binary codec (spec
// §6.5): a 2-byte entry-point header followed by the instruction stream,
// little-endian throughout. The linker writes this format; the emulator
// loads it.
//
// The original encoder had a documented bug where a 48-bit instruction's
// opB immediate borrowed its high byte from opA's encoding instead of
// its own value. This implementation encodes each operand independently
// and does not reproduce that bug.
package binfmt

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/jpsantos/simple86/isa"
)

// headerLen is the fixed 2-byte entry-point header.
const headerLen = 2

// Encode serializes a fully resolved INSTRUCTION record stream into an
// executable binary image: a zero entry-point header followed by each
// instruction's encoded bytes in program order. VAR records carry no
// bytes of their own; their reserved memory is simply left zeroed.
func Encode(records []isa.Record) ([]byte, error) {
	out := make([]byte, headerLen) // header: entry IP = 0, both bytes zero

	for _, r := range records {
		if r.Kind != isa.Instruction {
			continue
		}
		enc, err := encodeInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("binfmt: encode %q: %w", r.Debug(), err)
		}
		out = append(out, enc...)
	}
	return out, nil
}

// encodeInstruction encodes one instruction per spec §6.5: byte 0 is the
// operand-type code, byte 1 the opcode, bytes 2-3 the opA encoding, and
// (for 48-bit instructions only) bytes 4-5 the opB encoding.
func encodeInstruction(r isa.Record) ([]byte, error) {
	nbytes := int(r.Size) / 8
	if nbytes != 2 && nbytes != 4 && nbytes != 6 {
		return nil, fmt.Errorf("unsupported instruction size %d bits", r.Size)
	}

	buf := make([]byte, nbytes)
	buf[0] = byte(r.OpType)
	buf[1] = byte(r.Code)

	if nbytes >= 4 {
		aKind, _ := r.OpType.Kinds()
		opAWord, err := encodeOperand(aKind, r.OpA)
		if err != nil {
			return nil, fmt.Errorf("opA: %w", err)
		}
		binary.LittleEndian.PutUint16(buf[2:4], opAWord)
	}

	if nbytes == 6 {
		_, bKind := r.OpType.Kinds()
		opBWord, err := encodeOperand(bKind, r.OpB)
		if err != nil {
			return nil, fmt.Errorf("opB: %w", err)
		}
		binary.LittleEndian.PutUint16(buf[4:6], opBWord)
	}

	return buf, nil
}

// encodeOperand renders one operand word per its kind: register operands
// encode their register code in the low byte (high byte zero),
// immediates encode their hex literal value, and memory operands encode
// their (already-resolved) decimal address.
func encodeOperand(kind isa.OperandKind, token string) (uint16, error) {
	switch kind {
	case isa.KindReg:
		reg := isa.LookupRegister(token)
		if reg == isa.NoReg {
			return 0, fmt.Errorf("%q is not a register mnemonic", token)
		}
		return uint16(reg), nil
	case isa.KindImm:
		return parseHexLiteral(token)
	case isa.KindMem:
		addr, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%q is not a resolved decimal address: %w", token, err)
		}
		return uint16(addr), nil
	default:
		return 0, fmt.Errorf("no operand expected but got %q", token)
	}
}

// parseHexLiteral parses a Simple86 hex literal: hex digits, optionally
// prefixed with "0x"/"0X", matching the original's strtol(str, nil, 16)
// behavior where a leading zero is just the first hex digit, not a
// prefix marker.
func parseHexLiteral(token string) (uint16, error) {
	digits := token
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	digits = strings.TrimSpace(digits)
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid hex literal: %w", token, err)
	}
	return uint16(v), nil
}

// Load parses an executable image into the entry-point IP and the word
// stream to populate memory with, starting at address 0.
func Load(data []byte) (entryIP uint16, words []uint16, err error) {
	if len(data) < headerLen {
		return 0, nil, fmt.Errorf("binfmt: image shorter than header (%d bytes)", len(data))
	}
	entryIP = binary.LittleEndian.Uint16(data[:headerLen])

	body := data[headerLen:]
	if len(body)%2 != 0 {
		return 0, nil, fmt.Errorf("binfmt: image body is not a whole number of words (%d bytes)", len(body))
	}
	words = make([]uint16, len(body)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(body[i*2 : i*2+2])
	}
	return entryIP, words, nil
}
