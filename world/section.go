package world

import "fmt"

const (
	SectionVolume    = 16 * 16 * 16
	SectionsPerChunk = 16
	Height           = SectionsPerChunk * 16

	nibbleLen = SectionVolume / 2
)

// Section is a 16x16x16 slab in the pre-flattening Anvil layout: one byte of
// block id per cell, plus nibble arrays for the high id bits (Add), the data
// value, and both light channels. Cells are ordered YZX.
type Section struct {
	Y          int    `nbt:"Y"`
	Blocks     []byte `nbt:"Blocks"`
	Add        []byte `nbt:"Add"`
	Data       []byte `nbt:"Data"`
	BlockLight []byte `nbt:"BlockLight"`
	SkyLight   []byte `nbt:"SkyLight"`
}

func NewSection(y int, skyLight byte) *Section {
	s := &Section{
		Y:          y,
		Blocks:     make([]byte, SectionVolume),
		Data:       make([]byte, nibbleLen),
		BlockLight: make([]byte, nibbleLen),
		SkyLight:   make([]byte, nibbleLen),
	}
	if skyLight != 0 {
		fill := skyLight&0xF | skyLight<<4
		for i := range s.SkyLight {
			s.SkyLight[i] = fill
		}
	}
	return s
}

func (s *Section) validate() error {
	if s.Y < 0 || s.Y >= SectionsPerChunk {
		return fmt.Errorf("section y %d out of range", s.Y)
	}
	if len(s.Blocks) != SectionVolume {
		return fmt.Errorf("section %d: %d block bytes", s.Y, len(s.Blocks))
	}
	for _, arr := range [][]byte{s.Data, s.BlockLight, s.SkyLight} {
		if len(arr) != nibbleLen {
			return fmt.Errorf("section %d: nibble array of %d bytes", s.Y, len(arr))
		}
	}
	if len(s.Add) != 0 && len(s.Add) != nibbleLen {
		return fmt.Errorf("section %d: add array of %d bytes", s.Y, len(s.Add))
	}
	return nil
}

func sectionIndex(x, y, z int) int {
	return (y&15)<<8 | (z&15)<<4 | x&15
}

func nibble(arr []byte, i int) byte {
	if len(arr) == 0 {
		return 0
	}
	b := arr[i>>1]
	if i&1 == 0 {
		return b & 0xF
	}
	return b >> 4
}

func setNibble(arr []byte, i int, v byte) {
	j := i >> 1
	if i&1 == 0 {
		arr[j] = arr[j]&0xF0 | v&0xF
	} else {
		arr[j] = arr[j]&0x0F | v<<4
	}
}

func (s *Section) block(i int) uint16 {
	return uint16(s.Blocks[i]) | uint16(nibble(s.Add, i))<<8
}

func (s *Section) setBlock(i int, id uint16) {
	s.Blocks[i] = byte(id)
	high := byte(id >> 8)
	if high != 0 && len(s.Add) == 0 {
		s.Add = make([]byte, nibbleLen)
	}
	if len(s.Add) != 0 {
		setNibble(s.Add, i, high)
	}
}

// empty reports whether every cell is air.
func (s *Section) empty() bool {
	for _, b := range s.Blocks {
		if b != 0 {
			return false
		}
	}
	for _, b := range s.Add {
		if b != 0 {
			return false
		}
	}
	return true
}

// stored reports whether the section carries anything a missing section would
// not: a non-air block, block light, or sky light below full.
func (s *Section) stored() bool {
	if !s.empty() {
		return true
	}
	for _, b := range s.BlockLight {
		if b != 0 {
			return true
		}
	}
	for _, b := range s.SkyLight {
		if b != 0xFF {
			return true
		}
	}
	return false
}
