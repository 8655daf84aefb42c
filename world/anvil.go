package world

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	mcnbt "github.com/Tnze/go-mc/nbt"

	"github.com/astei/druidcraft/registry"
)

type anvilChunkRoot struct {
	Level anvilChunk `nbt:"Level"`
}

type anvilChunk struct {
	X         int32     `nbt:"xPos"`
	Z         int32     `nbt:"zPos"`
	Biomes    []byte    `nbt:"Biomes"`
	HeightMap []int32   `nbt:"HeightMap"`
	Sections  []Section `nbt:"Sections"`
}

// OpenAnvil loads every .mca region in dir. Regions are read concurrently;
// chunks without any non-air section are skipped.
func OpenAnvil(dir string, table *registry.Table) (*World, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var readers []*RegionReader
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mca") {
			continue
		}
		file, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		reader, err := NewRegionReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("region %s: %w", entry.Name(), err)
		}
		readers = append(readers, reader)
	}
	log.Printf("discovered %d region files in %s", len(readers), dir)

	var wg sync.WaitGroup
	results := make(chan []*Chunk, len(readers))
	errs := make(chan error, len(readers))
	for _, reader := range readers {
		wg.Add(1)
		go func(reader *RegionReader) {
			defer wg.Done()
			chunks, err := readRegion(reader)
			if err != nil {
				errs <- err
				return
			}
			results <- chunks
		}(reader)
	}
	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	w := New(table)
	for chunks := range results {
		for _, c := range chunks {
			w.AddChunk(c)
		}
	}
	log.Printf("loaded %d chunks", w.Len())
	return w, nil
}

func readRegion(reader *RegionReader) ([]*Chunk, error) {
	var out []*Chunk
	for x := 0; x < regionChunks; x++ {
		for z := 0; z < regionChunks; z++ {
			if !reader.ChunkExists(x, z) {
				continue
			}
			stream, err := reader.ReadChunk(x, z)
			if err != nil {
				return nil, fmt.Errorf("could not read chunk %d,%d in %s: %w", x, z, reader.Name, err)
			}

			var root anvilChunkRoot
			if err := mcnbt.NewDecoder(stream).Decode(&root); err != nil {
				return nil, fmt.Errorf("could not deserialize chunk %d,%d in %s: %w", x, z, reader.Name, err)
			}
			c, err := root.Level.toChunk()
			if err != nil {
				return nil, fmt.Errorf("chunk %d,%d in %s: %w", x, z, reader.Name, err)
			}
			if c != nil {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (a *anvilChunk) toChunk() (*Chunk, error) {
	c := NewChunk(int(a.X), int(a.Z))
	if len(a.HeightMap) == 256 {
		c.HeightMap = a.HeightMap
	} else if len(a.HeightMap) != 0 {
		return nil, fmt.Errorf("invalid height map size %d", len(a.HeightMap))
	}
	if len(a.Biomes) == 256 {
		c.Biomes = a.Biomes
	} else if len(a.Biomes) != 0 {
		return nil, fmt.Errorf("invalid biome size %d", len(a.Biomes))
	}

	populated := false
	for i := range a.Sections {
		s := a.Sections[i]
		if err := s.validate(); err != nil {
			return nil, err
		}
		if s.empty() {
			continue
		}
		c.Sections[s.Y] = &s
		populated = true
	}
	if !populated {
		return nil, nil
	}
	return c, nil
}
