package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/google/btree"
	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/simtsim/insts"
)

// Memory is a word-addressed backing array covering the full 8-bit address
// space. Words are at most 16 bits wide; narrower memories mask every
// written value to their width.
type Memory struct {
	storage *mem.Storage
	bits    int
	mask    uint16

	// written indexes every address stored to since the last Clear.
	written *btree.BTree
}

// NewMemory creates a zeroed memory whose words are bits wide (1-16).
func NewMemory(bits int) *Memory {
	if bits <= 0 || bits > 16 {
		panic(fmt.Sprintf("emu: unsupported memory word width %d", bits))
	}

	return &Memory{
		storage: mem.NewStorage(insts.AddrSpace * 2),
		bits:    bits,
		mask:    uint16(1<<uint(bits) - 1),
		written: btree.New(2),
	}
}

// Bits returns the word width in bits.
func (m *Memory) Bits() int {
	return m.bits
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint8) uint16 {
	data, err := m.storage.Read(uint64(addr)*2, 2)
	if err != nil {
		panic(fmt.Sprintf("emu: read at %d: %v", addr, err))
	}
	return binary.LittleEndian.Uint16(data)
}

// Write stores value, masked to the word width, at addr.
func (m *Memory) Write(addr uint8, value uint16) {
	m.store(addr, value)
	m.written.ReplaceOrInsert(btree.Int(addr))
}

// Load copies words into memory starting at address 0 without marking
// them as written.
func (m *Memory) Load(words []uint16) {
	for i, w := range words {
		if i >= insts.AddrSpace {
			return
		}
		m.store(uint8(i), w)
	}
}

// Words returns the first n words.
func (m *Memory) Words(n int) []uint16 {
	if n > insts.AddrSpace {
		n = insts.AddrSpace
	}
	words := make([]uint16, n)
	for i := range words {
		words[i] = m.Read(uint8(i))
	}
	return words
}

// WrittenAddrs returns every address written since the last Clear, in
// ascending order.
func (m *Memory) WrittenAddrs() []uint8 {
	addrs := make([]uint8, 0, m.written.Len())
	m.written.Ascend(func(item btree.Item) bool {
		addrs = append(addrs, uint8(item.(btree.Int)))
		return true
	})
	return addrs
}

// Clear zeroes every word and forgets the written addresses.
func (m *Memory) Clear() {
	for i := 0; i < insts.AddrSpace; i++ {
		m.store(uint8(i), 0)
	}
	m.written.Clear(false)
}

func (m *Memory) store(addr uint8, value uint16) {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, value&m.mask)
	if err := m.storage.Write(uint64(addr)*2, data); err != nil {
		panic(fmt.Sprintf("emu: write at %d: %v", addr, err))
	}
}
