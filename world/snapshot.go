package world

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	mcnbt "github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zstd"
	"github.com/willf/bitset"

	"github.com/astei/druidcraft/nbt"
	"github.com/astei/druidcraft/registry"
)

const (
	snapshotMagic   = 0xD4C7
	snapshotVersion = 1

	sectionHasAdd = 1 << 0
)

var (
	ErrNotSnapshot      = errors.New("snapshot: bad magic")
	ErrSnapshotVersion  = errors.New("snapshot: unsupported version")
	ErrEmptyWorld       = errors.New("snapshot: world has no chunks")
	ErrSnapshotTooLarge = errors.New("snapshot: world too large")
)

// Meta travels with a snapshot as an NBT compound.
type Meta struct {
	Tick      int64  `nbt:"tick"`
	Seed      int64  `nbt:"seed"`
	RunID     string `nbt:"run_id"`
	SkyDarken int32  `nbt:"sky_darken"`
	Drops     []Drop `nbt:"drops"`
}

type Drop struct {
	Item  string `nbt:"item"`
	Count int32  `nbt:"count"`
}

type snapshotHeader struct {
	Magic   uint16
	Version uint8
	MinX    int16
	MinZ    int16
	Width   uint16
	Depth   uint16
}

// WriteSnapshot stores the world in a compact single-file format: a header with
// the chunk bounding box, a bitmask of populated chunks, then zstd frames for
// the chunk payload and for meta. Drops recorded in the world are added to meta.
func (w *World) WriteSnapshot(out io.Writer, meta Meta) error {
	coords := w.Coords()
	if len(coords) == 0 {
		return ErrEmptyWorld
	}
	minX, maxX, minZ, maxZ := bounds(coords)
	width, depth := maxX-minX+1, maxZ-minZ+1
	if width > math.MaxUint16 || depth > math.MaxUint16 || minX < math.MinInt16 || minZ < math.MinInt16 || maxX > math.MaxInt16 || maxZ > math.MaxInt16 {
		return ErrSnapshotTooLarge
	}

	header := snapshotHeader{
		Magic:   snapshotMagic,
		Version: snapshotVersion,
		MinX:    int16(minX),
		MinZ:    int16(minZ),
		Width:   uint16(width),
		Depth:   uint16(depth),
	}
	if err := binary.Write(out, binary.BigEndian, header); err != nil {
		return err
	}

	populated := bitset.New(uint(width * depth))
	for _, c := range coords {
		populated.Set(uint((c.Z-minZ)*width + (c.X - minX)))
	}
	if _, err := out.Write(maskBytes(populated, width*depth)); err != nil {
		return err
	}

	// Coords is Z-major, which matches the mask order.
	var payload bytes.Buffer
	for _, coord := range coords {
		if err := writeChunk(&payload, w.chunks[coord]); err != nil {
			return err
		}
	}
	if err := writeZstd(out, payload.Bytes()); err != nil {
		return err
	}

	meta.Drops = meta.Drops[:0:0]
	for item, n := range w.drops {
		meta.Drops = append(meta.Drops, Drop{Item: item, Count: int32(n)})
	}
	sort.Slice(meta.Drops, func(i, j int) bool { return meta.Drops[i].Item < meta.Drops[j].Item })
	meta.SkyDarken = int32(w.SkyDarken)

	var extra bytes.Buffer
	if err := nbt.NewEncoder(&extra).Encode(meta); err != nil {
		return err
	}
	return writeZstd(out, extra.Bytes())
}

func bounds(coords []ChunkCoord) (minX, maxX, minZ, maxZ int) {
	minX, maxX = coords[0].X, coords[0].X
	minZ, maxZ = coords[0].Z, coords[0].Z
	for _, c := range coords[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Z < minZ {
			minZ = c.Z
		}
		if c.Z > maxZ {
			maxZ = c.Z
		}
	}
	return
}

func maskBytes(set *bitset.BitSet, bits int) []byte {
	out := make([]byte, (bits+7)/8)
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

func writeChunk(out *bytes.Buffer, c *Chunk) error {
	if err := binary.Write(out, binary.BigEndian, c.HeightMap); err != nil {
		return err
	}
	out.Write(c.Biomes)

	var mask uint16
	for y, s := range c.Sections {
		if s != nil && s.stored() {
			mask |= 1 << y
		}
	}
	if err := binary.Write(out, binary.BigEndian, mask); err != nil {
		return err
	}

	for y, s := range c.Sections {
		if mask&(1<<y) == 0 {
			continue
		}
		var flags byte
		if len(s.Add) != 0 {
			flags |= sectionHasAdd
		}
		out.WriteByte(flags)
		out.Write(s.BlockLight)
		out.Write(s.Blocks)
		if flags&sectionHasAdd != 0 {
			out.Write(s.Add)
		}
		out.Write(s.Data)
		out.Write(s.SkyLight)
	}
	return nil
}

func writeZstd(out io.Writer, raw []byte) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(raw, nil)
	if err := enc.Close(); err != nil {
		return err
	}
	if err := binary.Write(out, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if err := binary.Write(out, binary.BigEndian, uint32(len(raw))); err != nil {
		return err
	}
	_, err = out.Write(compressed)
	return err
}

// ReadSnapshot loads a world written by WriteSnapshot.
func ReadSnapshot(in io.Reader, table *registry.Table) (*World, Meta, error) {
	var meta Meta
	r := bufio.NewReader(in)

	var header snapshotHeader
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, meta, err
	}
	if header.Magic != snapshotMagic {
		return nil, meta, ErrNotSnapshot
	}
	if header.Version != snapshotVersion {
		return nil, meta, fmt.Errorf("%w: %d", ErrSnapshotVersion, header.Version)
	}

	width, depth := int(header.Width), int(header.Depth)
	mask := make([]byte, (width*depth+7)/8)
	if _, err := io.ReadFull(r, mask); err != nil {
		return nil, meta, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, meta, err
	}
	defer dec.Close()

	payload, err := readZstd(r, dec)
	if err != nil {
		return nil, meta, fmt.Errorf("snapshot chunks: %w", err)
	}
	body := bytes.NewReader(payload)

	w := New(table)
	for i := 0; i < width*depth; i++ {
		if mask[i/8]&(1<<(i%8)) == 0 {
			continue
		}
		c := NewChunk(int(header.MinX)+i%width, int(header.MinZ)+i/width)
		if err := readChunk(body, c); err != nil {
			return nil, meta, fmt.Errorf("snapshot chunk %d,%d: %w", c.X, c.Z, err)
		}
		w.AddChunk(c)
	}

	extra, err := readZstd(r, dec)
	if err != nil {
		return nil, meta, fmt.Errorf("snapshot meta: %w", err)
	}
	if err := mcnbt.NewDecoder(bytes.NewReader(extra)).Decode(&meta); err != nil {
		return nil, meta, fmt.Errorf("snapshot meta: %w", err)
	}
	w.SkyDarken = int(meta.SkyDarken)
	for _, d := range meta.Drops {
		w.drops[d.Item] += int(d.Count)
	}
	return w, meta, nil
}

func readZstd(r io.Reader, dec *zstd.Decoder) ([]byte, error) {
	var sizes struct {
		Compressed   uint32
		Uncompressed uint32
	}
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, err
	}
	compressed := make([]byte, sizes.Compressed)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	raw, err := dec.DecodeAll(compressed, make([]byte, 0, sizes.Uncompressed))
	if err != nil {
		return nil, err
	}
	if len(raw) != int(sizes.Uncompressed) {
		return nil, fmt.Errorf("expected %d bytes, got %d", sizes.Uncompressed, len(raw))
	}
	return raw, nil
}

func readChunk(r io.Reader, c *Chunk) error {
	if err := binary.Read(r, binary.BigEndian, c.HeightMap); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, c.Biomes); err != nil {
		return err
	}
	var mask uint16
	if err := binary.Read(r, binary.BigEndian, &mask); err != nil {
		return err
	}
	for y := 0; y < SectionsPerChunk; y++ {
		if mask&(1<<y) == 0 {
			continue
		}
		var flags [1]byte
		if _, err := io.ReadFull(r, flags[:]); err != nil {
			return err
		}
		s := NewSection(y, 0)
		arrays := [][]byte{s.BlockLight, s.Blocks}
		if flags[0]&sectionHasAdd != 0 {
			s.Add = make([]byte, nibbleLen)
			arrays = append(arrays, s.Add)
		}
		arrays = append(arrays, s.Data, s.SkyLight)
		for _, arr := range arrays {
			if _, err := io.ReadFull(r, arr); err != nil {
				return err
			}
		}
		c.Sections[y] = s
	}
	return nil
}
