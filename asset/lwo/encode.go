package lwo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/lwoexport/types"
)

const (
	// Indices below this value are encoded using 2 bytes.
	maxNarrowIndex = 0xFF00

	// Largest index that can be encoded using the 4 byte form.
	maxWideIndex = 0x00FFFFFF

	// The top byte of a 4 byte index is always set to 0xFF.
	wideIndexMask = 0xFF000000

	// Polygon point counts are stored in the low 10 bits of the count field.
	maxPolygonPoints = 1023
)

// A chunkBuffer accumulates a chunk payload. The first encoding error is
// retained and reported by Err; subsequent writes are still performed so
// callers can check the error once after building a payload.
type chunkBuffer struct {
	bytes.Buffer
	err error
}

func (b *chunkBuffer) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Get the first error encountered while building the payload.
func (b *chunkBuffer) Err() error {
	return b.err
}

// Get the payload bytes and any encoding error.
func (b *chunkBuffer) Payload() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.Bytes(), nil
}

func (b *chunkBuffer) U8(v uint8) {
	b.WriteByte(v)
}

func (b *chunkBuffer) U16(v uint16) {
	var scratch [2]byte
	binary.BigEndian.PutUint16(scratch[:], v)
	b.Write(scratch[:])
}

func (b *chunkBuffer) U32(v uint32) {
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], v)
	b.Write(scratch[:])
}

func (b *chunkBuffer) F32(v float32) {
	b.U32(math.Float32bits(v))
}

// Write a 3 component vector.
func (b *chunkBuffer) Vec3(v types.Vec3) {
	b.F32(v[0])
	b.F32(v[1])
	b.F32(v[2])
}

// Write a 4 byte chunk identifier.
func (b *chunkBuffer) Tag(id string) {
	if len(id) != 4 {
		b.setErr(fmt.Errorf("lwo: invalid chunk id %q", id))
		return
	}
	b.WriteString(id)
}

// Write a NUL terminated, even padded string.
func (b *chunkBuffer) Str(s string) {
	b.Write(EncodeString(s))
}

// Write a point or polygon index using the supplied index form.
func (b *chunkBuffer) Index(form indexForm, index int) {
	if err := form.check(index); err != nil {
		b.setErr(err)
		return
	}

	if form.wide {
		b.U32(uint32(index) | wideIndexMask)
		return
	}
	b.U16(uint16(index))
}

// Write a sub-chunk with a 16-bit length header.
func (b *chunkBuffer) SubChunk(id string, payload []byte) {
	if len(payload) > math.MaxUint16 {
		b.setErr(fmt.Errorf("%w: %s (%d bytes)", ErrSubChunkTooLarge, id, len(payload)))
		return
	}
	b.Tag(id)
	b.U16(uint16(len(payload)))
	b.Write(payload)
}

// Encode a string as a NUL terminated byte sequence. An extra NUL byte is
// appended when needed so that the encoded length is always even.
func EncodeString(s string) []byte {
	out := make([]byte, len(s), len(s)+2)
	copy(out, s)
	out = append(out, 0)
	if len(out)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// Encode an index using the variable length form: indices below 0xFF00 are
// written as 2 bytes while larger indices are written as 4 bytes with the
// top byte set to 0xFF.
func EncodeIndex(index uint32) []byte {
	if index < maxNarrowIndex {
		return binary.BigEndian.AppendUint16(nil, uint16(index))
	}
	return binary.BigEndian.AppendUint32(nil, index|wideIndexMask)
}

// An indexForm selects how every point and polygon index of a mesh is
// encoded. Mixing 2 and 4 byte indices inside a mesh is never allowed.
type indexForm struct {
	wide bool
}

// Select the index form for a mesh with the given number of points and
// polygons.
func selectIndexForm(pointCount, polygonCount int) indexForm {
	return indexForm{
		wide: pointCount > maxNarrowIndex || polygonCount > maxNarrowIndex,
	}
}

func (f indexForm) check(index int) error {
	switch {
	case index < 0:
		return fmt.Errorf("%w: negative index %d", ErrIndexOverflow, index)
	case !f.wide && index >= maxNarrowIndex:
		return fmt.Errorf("%w: index %d requires the 4 byte form", ErrIndexOverflow, index)
	case index > maxWideIndex:
		return fmt.Errorf("%w: index %d exceeds %d", ErrIndexOverflow, index, maxWideIndex)
	}
	return nil
}
