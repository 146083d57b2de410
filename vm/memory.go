package vm

import (
	"fmt"

	"github.com/jpsantos/simple86/binfmt"
	"github.com/jpsantos/simple86/isa"
)

// Memory is the machine's flat, word-addressed address space: exactly
// isa.MemoryLimit 16-bit words, zero-initialized (spec §3).
type Memory struct {
	words [isa.MemoryLimit]uint16
}

// NewMemory returns a fresh, zeroed Memory instance.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the word at a word address, bounds-checked against
// isa.MemoryLimit.
func (m *Memory) Read(addr int16) (uint16, error) {
	if addr < 0 || int(addr) >= isa.MemoryLimit {
		return 0, fmt.Errorf("vm: memory read out of bounds at address %d", addr)
	}
	return m.words[addr], nil
}

// Write stores a word at a word address, bounds-checked against
// isa.MemoryLimit.
func (m *Memory) Write(addr int16, value uint16) error {
	if addr < 0 || int(addr) >= isa.MemoryLimit {
		return fmt.Errorf("vm: memory write out of bounds at address %d", addr)
	}
	m.words[addr] = value
	return nil
}

// Load populates memory from an executable binary image (spec §6.5),
// starting at word address 0, and returns the image's entry-point IP.
func (m *Memory) Load(image []byte) (int16, error) {
	entryIP, words, err := binfmt.Load(image)
	if err != nil {
		return 0, fmt.Errorf("vm: load image: %w", err)
	}
	if len(words) > isa.MemoryLimit {
		return 0, fmt.Errorf("vm: program of %d words exceeds memory limit of %d", len(words), isa.MemoryLimit)
	}
	for i, w := range words {
		m.words[i] = w
	}
	return int16(entryIP), nil
}
