package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/ioutil"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// buildRegion lays out a region file holding one chunk at local 3,5 in sector 2.
func buildRegion(t *testing.T, compression Compression, payload []byte) []byte {
	t.Helper()
	var body bytes.Buffer
	switch compression {
	case CompressionGzip:
		zw := gzip.NewWriter(&body)
		zw.Write(payload)
		zw.Close()
	case CompressionZlib:
		zw := zlib.NewWriter(&body)
		zw.Write(payload)
		zw.Close()
	default:
		body.Write(payload)
	}

	file := make([]byte, 3*regionSectorSize)
	binary.BigEndian.PutUint32(file[(3+5*regionChunks)*4:], 2<<8|1)
	sector := file[2*regionSectorSize:]
	binary.BigEndian.PutUint32(sector, uint32(body.Len()+1))
	sector[4] = byte(compression)
	copy(sector[5:], body.Bytes())
	return file
}

func TestRegionReader(t *testing.T) {
	payload := []byte("level data goes here")
	for _, c := range []Compression{CompressionGzip, CompressionZlib, CompressionNone} {
		r, err := NewRegionReader(bytes.NewReader(buildRegion(t, c, payload)))
		if err != nil {
			t.Fatalf("compression %d: NewRegionReader: %v", c, err)
		}
		if !r.ChunkExists(3, 5) || r.ChunkExists(0, 0) {
			t.Fatalf("compression %d: wrong chunk presence", c)
		}
		stream, err := r.ReadChunk(3, 5)
		if err != nil {
			t.Fatalf("compression %d: ReadChunk: %v", c, err)
		}
		got, err := ioutil.ReadAll(stream)
		if err != nil {
			t.Fatalf("compression %d: read: %v", c, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("compression %d: got %q", c, got)
		}
		if _, err := r.ReadChunk(0, 0); !errors.Is(err, ErrNoChunk) {
			t.Fatalf("compression %d: missing chunk err = %v", c, err)
		}
	}
}

func TestRegionReaderRejectsCorruptHeaders(t *testing.T) {
	file := buildRegion(t, 9, []byte("x"))
	r, err := NewRegionReader(bytes.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadChunk(3, 5); !errors.Is(err, ErrInvalidCompression) {
		t.Fatalf("err = %v, want ErrInvalidCompression", err)
	}

	file = buildRegion(t, CompressionNone, []byte("x"))
	binary.BigEndian.PutUint32(file[2*regionSectorSize:], regionSectorSize*2)
	r, err = NewRegionReader(bytes.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadChunk(3, 5); !errors.Is(err, ErrInvalidChunkLength) {
		t.Fatalf("err = %v, want ErrInvalidChunkLength", err)
	}

	if _, err := NewRegionReader(bytes.NewReader(make([]byte, 100))); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("short header err = %v", err)
	}
}
