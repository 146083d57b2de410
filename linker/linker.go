// Package linker implements the Simple86 linker (spec §4.D): it
// concatenates object modules, rebasing each module's addresses into a
// single combined address space, then runs the same symbol-resolution
// pass the assembler uses across the whole combined program before
// emitting the final executable binary image.
package linker

import (
	"fmt"

	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/object"
)

// LoadModule reads one object module file. A missing file is reported
// to the caller rather than treated as fatal here, so that a driver can
// choose to skip it and continue (spec §4.D names no such leniency, but
// the original `linkModule` logs and continues past a module it can't
// open, rather than aborting the whole link).
func LoadModule(path string) ([]isa.Record, error) {
	records, err := object.ReadModule(path)
	if err != nil {
		return nil, fmt.Errorf("linker: %w", err)
	}
	return records, nil
}

// Concatenate rebases each module's records into one combined address
// space, in the order the modules are given: every record's address is
// reassigned from a single running byte counter, exactly as Pass 1 does
// for a single module (spec §4.D "Rebase each record's address"). It
// returns the combined records together with the byte offset following
// the last INSTRUCTION, so the caller can resume VAR placement there.
func Concatenate(modules [][]isa.Record) ([]isa.Record, int) {
	var combined []isa.Record
	sizeBytes := 0
	for _, mod := range modules {
		for _, r := range mod {
			r.Address = int16(sizeBytes / 2)
			if r.Kind == isa.Instruction {
				sizeBytes += int(r.Size) / 8
			}
			combined = append(combined, r)
		}
	}
	return combined, sizeBytes
}

// Link concatenates modules and resolves every intra- and inter-module
// symbol reference across the combined record list, returning the
// fully resolved INSTRUCTION/VAR stream ready for executable emission.
func Link(modules [][]isa.Record) []isa.Record {
	combined, sizeBytes := Concatenate(modules)
	assembler.ResolveLabels(combined, sizeBytes)

	out := make([]isa.Record, 0, len(combined))
	for _, r := range combined {
		if r.Kind == isa.Label {
			continue
		}
		out = append(out, r)
	}
	return out
}
