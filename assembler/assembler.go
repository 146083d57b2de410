// Package assembler implements the Simple86 two-pass assembler (spec
// §4.C): Pass 1 lays out word addresses, Pass 2 substitutes symbolic
// operands with those addresses. The result is an object record stream
// (package object) ready for the linker.
package assembler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jpsantos/simple86/asmline"
	"github.com/jpsantos/simple86/isa"
)

// ReadSource parses every line of an assembly source file into records,
// in source order. A label sharing a line with an instruction produces
// both records, label first.
func ReadSource(path string) ([]isa.Record, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("assembler: open %s: %w", path, err)
	}
	defer f.Close()

	var records []isa.Record
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		records = append(records, asmline.ParseLine(scanner.Text(), lineNum)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("assembler: read %s: %w", path, err)
	}
	return records, nil
}

// Layout runs Pass 1 (spec §4.C): it assigns a word address to every
// record in place and returns the program size in bytes after the last
// INSTRUCTION record (VAR placement in Pass 2 continues from this
// value).
func Layout(records []isa.Record) int {
	sizeBytes := 0
	for i := range records {
		records[i].Address = int16(sizeBytes / 2)
		if records[i].Kind == isa.Instruction {
			sizeBytes += int(records[i].Size) / 8
		}
	}
	return sizeBytes
}

// ResolveLabels runs Pass 2 (spec §4.C): it places VAR records after all
// instructions in declaration order, assigns each a word address, and
// substitutes every INSTRUCTION operand that names a LABEL or VAR with
// the decimal string of that symbol's address. programSizeBytes is the
// running byte counter carried over from Layout (or, when linking, from
// the previous module's contribution).
func ResolveLabels(records []isa.Record, programSizeBytes int) {
	for i := range records {
		s := &records[i]
		if s.Kind != isa.Label && s.Kind != isa.Var {
			continue
		}

		symbolID := s.ID
		if s.Kind == isa.Var {
			s.Address = int16(programSizeBytes / 2)
			s.ID = s.OpA
			symbolID = s.ID
			programSizeBytes += 2
		}

		addr := strconv.Itoa(int(s.Address))
		for j := range records {
			instr := &records[j]
			if instr.Kind != isa.Instruction {
				continue
			}
			if instr.OpA == symbolID {
				instr.OpA = addr
			}
			if instr.OpB == symbolID {
				instr.OpB = addr
			}
		}
	}
}

// Assemble runs both passes over a parsed record stream, returning the
// INSTRUCTION and VAR records ready for object-record emission. LABEL
// records are dropped; they exist only to be resolved.
func Assemble(records []isa.Record) []isa.Record {
	sizeBytes := Layout(records)
	ResolveLabels(records, sizeBytes)

	out := make([]isa.Record, 0, len(records))
	for _, r := range records {
		if r.Kind == isa.Label {
			continue
		}
		out = append(out, r)
	}
	return out
}

// WriteListing renders a human-readable assembly listing (word address,
// record kind, and decoded text per record) for the `-v` flag, mirroring
// the original compiler's verbose trace. LABEL records are skipped.
func WriteListing(w io.Writer, records []isa.Record) error {
	for _, r := range records {
		if r.Kind == isa.Label {
			continue
		}
		if _, err := fmt.Fprintf(w, "%04d  %-12s %s\n", r.Address, r.Kind, r.Debug()); err != nil {
			return err
		}
	}
	return nil
}
