// Package asmline implements the Simple86 lexical line parser (spec §4.A):
// turning one line of source text into one or two isa.Record values.
package asmline

import (
	"strings"

	"github.com/jpsantos/simple86/isa"
)

// ParseLine parses a single source line, stripping its comment, lower-
// casing it, and classifying it into one or two Records. A line of the
// form "_label: instruction" produces a LABEL record followed by the
// re-parsed instruction record; every other line produces exactly one
// record. Blank lines (after comment stripping) produce no records.
func ParseLine(raw string, lineNum int) []isa.Record {
	text := stripComment(raw)
	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	if text == "" {
		return nil
	}

	if text[0] == '_' {
		split := strings.IndexByte(text, ':')
		if split < 0 {
			// No closing colon: treat the whole line as a label id.
			return []isa.Record{parseFields(text)}
		}

		label := parseFields(text[:split])
		rest := strings.TrimSpace(text[split+1:])
		if rest == "" {
			return []isa.Record{label}
		}
		return append([]isa.Record{label}, parseFields(rest))
	}

	return []isa.Record{parseFields(text)}
}

// stripComment discards everything from the first ';' onward.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// parseFields splits one already-comment-stripped, lower-cased,
// trimmed line into an id/opA/opB triple and classifies it (spec §4.A
// steps 4-7). The separators are the first ' ' (between id and opA) and
// the first ',' (between opA and opB), matching the original's
// istringstream getline(..., ' ') / getline(..., ',') behavior.
func parseFields(text string) isa.Record {
	rec := isa.Record{FullText: text}

	id, opA, opB := splitFields(text)
	rec.ID = strings.ReplaceAll(id, " ", "")
	rec.ID = strings.ReplaceAll(rec.ID, ":", "")
	rec.OpA = stripSpaces(opA)
	rec.OpB = stripSpaces(opB)

	switch {
	case strings.HasPrefix(rec.ID, "_"):
		rec.Kind = isa.Label
		rec.Code = isa.NOPE
	case rec.ID == "dw":
		rec.Kind = isa.Var
		rec.Code = isa.NOPE
	default:
		rec.Kind = isa.Instruction
		rec.Code = isa.LookupMnemonic(rec.ID)
	}

	rec.OpType = isa.DetermineOperandType(rec.OpA, rec.OpB)
	rec.Size = int16(rec.Code.SizeBits())
	rec.Address = 0 // assigned by the assembler's layout pass

	return rec
}

// splitFields implements the original's two-stage getline split: first
// word up to the first space is id, remainder up to the first comma is
// opA, and whatever follows is opB.
func splitFields(text string) (id, opA, opB string) {
	rest := text
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		id, rest = rest[:sp], rest[sp+1:]
	} else {
		id, rest = rest, ""
	}

	if cm := strings.IndexByte(rest, ','); cm >= 0 {
		opA, opB = rest[:cm], rest[cm+1:]
	} else {
		opA = rest
	}

	return id, opA, opB
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
