package lwo

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Chunk identifiers.
const (
	idForm = "FORM"
	idLwo2 = "LWO2"
	idTags = "TAGS"
	idLayr = "LAYR"
	idPnts = "PNTS"
	idBbox = "BBOX"
	idPols = "POLS"
	idPtag = "PTAG"
	idVmap = "VMAP"
	idVmad = "VMAD"
	idClip = "CLIP"
	idSurf = "SURF"
)

// A top-level chunk: a 4 byte id followed by a 32-bit payload length and
// the payload itself.
type Chunk struct {
	ID   string
	Data []byte
}

// Get the number of bytes occupied by the chunk including its header.
func (c Chunk) Size() int {
	return len(c.Data) + 8
}

// Write the chunk header and payload.
func (c Chunk) WriteTo(w io.Writer) (int64, error) {
	if len(c.ID) != 4 {
		return 0, fmt.Errorf("lwo: invalid chunk id %q", c.ID)
	}

	var header [8]byte
	copy(header[:4], c.ID)
	binary.BigEndian.PutUint32(header[4:], uint32(len(c.Data)))

	n, err := w.Write(header[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(c.Data)
	return int64(n + m), err
}

// Create a chunk from a payload builder result.
func newChunk(id string, payload []byte, err error) (Chunk, error) {
	if err != nil {
		return Chunk{}, fmt.Errorf("lwo: could not build %s chunk: %w", id, err)
	}
	return Chunk{ID: id, Data: payload}, nil
}
