package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	regionChunks     = 32
	regionSectorSize = 4096
)

var (
	ErrNoChunk            = errors.New("region: chunk not found")
	ErrInvalidChunkLength = errors.New("region: invalid chunk length")
	ErrInvalidCompression = errors.New("region: invalid compression format")
)

type Compression byte

const (
	CompressionGzip Compression = 1
	CompressionZlib Compression = 2
	CompressionNone Compression = 3
)

// RegionReader reads chunks out of an .mca region file. It is not safe for
// concurrent use; OpenAnvil gives each region its own reader.
type RegionReader struct {
	source  io.ReadSeeker
	offsets [regionChunks * regionChunks]int32
	Name    string
}

// NewRegionReader takes ownership of source.
func NewRegionReader(source io.ReadSeeker) (*RegionReader, error) {
	r := &RegionReader{source: source}
	if file, ok := source.(*os.File); ok {
		r.Name = file.Name()
	}
	if err := r.readOffsets(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RegionReader) readOffsets() error {
	if _, err := r.source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	raw := make([]byte, regionSectorSize)
	if _, err := io.ReadFull(r.source, raw); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(raw), binary.BigEndian, r.offsets[:])
}

// ReadChunk returns the decompressed NBT stream of the chunk at x, z, which are
// relative to the region (0 to 31), not world chunk coordinates.
func (r *RegionReader) ReadChunk(x, z int) (io.Reader, error) {
	offset := r.offsets[x+z*regionChunks]
	sector := offset >> 8
	count := offset & 0xff
	if sector == 0 {
		return nil, ErrNoChunk
	}

	if _, err := r.source.Seek(int64(sector)*regionSectorSize, io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, int(count)*regionSectorSize)
	if _, err := io.ReadFull(r.source, data); err != nil {
		return nil, err
	}

	in := bytes.NewReader(data)
	var header struct {
		Length      int32
		Compression Compression
	}
	if err := binary.Read(in, binary.BigEndian, &header); err != nil {
		return nil, err
	}
	// Length counts the compression byte.
	if header.Length < 1 || header.Length > int32(len(data)-4) {
		return nil, ErrInvalidChunkLength
	}

	stream := io.LimitReader(in, int64(header.Length-1))
	switch header.Compression {
	case CompressionGzip:
		return gzip.NewReader(stream)
	case CompressionZlib:
		return zlib.NewReader(stream)
	case CompressionNone:
		return stream, nil
	default:
		return nil, ErrInvalidCompression
	}
}

func (r *RegionReader) ChunkExists(x, z int) bool {
	return r.offsets[x+z*regionChunks] != 0
}

func (r *RegionReader) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
