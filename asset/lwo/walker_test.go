package lwo

import (
	"encoding/binary"
	"math"
	"testing"
)

type testChunk struct {
	id   string
	data []byte
}

// Split an encoded document into its top-level chunks. The FORM header and
// every chunk length are verified against the available bytes.
func walkDocument(t *testing.T, data []byte) []testChunk {
	t.Helper()

	if len(data) < 12 {
		t.Fatalf("expected at least 12 bytes; got %d", len(data))
	}
	if id := string(data[0:4]); id != "FORM" {
		t.Fatalf("expected FORM header; got %q", id)
	}
	if formSize := binary.BigEndian.Uint32(data[4:8]); int(formSize) != len(data)-8 {
		t.Fatalf("expected FORM size to be %d; got %d", len(data)-8, formSize)
	}
	if id := string(data[8:12]); id != "LWO2" {
		t.Fatalf("expected LWO2 form type; got %q", id)
	}

	chunks := make([]testChunk, 0)
	for offset := 12; offset < len(data); {
		if offset+8 > len(data) {
			t.Fatalf("truncated chunk header at offset %d", offset)
		}
		id := string(data[offset : offset+4])
		size := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if offset+size > len(data) {
			t.Fatalf("chunk %s at offset %d: length %d exceeds document", id, offset-8, size)
		}
		chunks = append(chunks, testChunk{id: id, data: data[offset : offset+size]})
		offset += size
	}
	return chunks
}

// Split a payload into sub-chunks with 16-bit lengths.
func walkSubChunks(t *testing.T, data []byte) []testChunk {
	t.Helper()

	chunks := make([]testChunk, 0)
	for offset := 0; offset < len(data); {
		if offset+6 > len(data) {
			t.Fatalf("truncated sub-chunk header at offset %d", offset)
		}
		id := string(data[offset : offset+4])
		size := int(binary.BigEndian.Uint16(data[offset+4 : offset+6]))
		offset += 6
		if offset+size > len(data) {
			t.Fatalf("sub-chunk %s: length %d exceeds payload", id, size)
		}
		chunks = append(chunks, testChunk{id: id, data: data[offset : offset+size]})
		offset += size
	}
	return chunks
}

func chunkIDs(chunks []testChunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.id
	}
	return ids
}

func filterChunks(chunks []testChunk, id string) []testChunk {
	out := make([]testChunk, 0)
	for _, c := range chunks {
		if c.id == id {
			out = append(out, c)
		}
	}
	return out
}

// Find the vertex maps with the given type tag.
func filterMaps(chunks []testChunk, id, mapType string) []testChunk {
	out := make([]testChunk, 0)
	for _, c := range filterChunks(chunks, id) {
		if string(c.data[0:4]) == mapType {
			out = append(out, c)
		}
	}
	return out
}

// A payloadReader decodes big-endian primitives from a payload.
type payloadReader struct {
	t    *testing.T
	data []byte
	off  int
}

func newPayloadReader(t *testing.T, data []byte) *payloadReader {
	return &payloadReader{t: t, data: data}
}

func (r *payloadReader) need(n int) {
	r.t.Helper()
	if r.off+n > len(r.data) {
		r.t.Fatalf("payload underflow: need %d bytes at offset %d; payload has %d", n, r.off, len(r.data))
	}
}

func (r *payloadReader) done() bool {
	return r.off >= len(r.data)
}

func (r *payloadReader) tag() string {
	r.t.Helper()
	r.need(4)
	v := string(r.data[r.off : r.off+4])
	r.off += 4
	return v
}

func (r *payloadReader) u16() uint16 {
	r.t.Helper()
	r.need(2)
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *payloadReader) u32() uint32 {
	r.t.Helper()
	r.need(4)
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *payloadReader) f32() float32 {
	r.t.Helper()
	return math.Float32frombits(r.u32())
}

// Read a variable length index.
func (r *payloadReader) index() int {
	r.t.Helper()
	r.need(1)
	if r.data[r.off] == 0xFF {
		return int(r.u32() &^ wideIndexMask)
	}
	return int(r.u16())
}

// Read a NUL terminated string and verify that its padded length is even.
func (r *payloadReader) str() string {
	r.t.Helper()
	start := r.off
	for {
		r.need(1)
		if r.data[r.off] == 0 {
			break
		}
		r.off++
	}
	v := string(r.data[start:r.off])
	r.off++
	if (r.off-start)%2 != 0 {
		r.need(1)
		if r.data[r.off] != 0 {
			r.t.Fatalf("expected pad byte after string %q", v)
		}
		r.off++
	}
	return v
}

func (r *payloadReader) rest() []byte {
	v := r.data[r.off:]
	r.off = len(r.data)
	return v
}
