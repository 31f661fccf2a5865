package lwo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/achilleasa/lwoexport/asset/scene"
)

// A Document holds every chunk of an LWO2 file. Documents are fully built
// in memory before being written so encoding errors never produce partial
// output.
type Document struct {
	// Names of the exported objects in layer order.
	Objects []string

	Tags     Chunk
	Geometry []Chunk

	// Image references allocated while building surfaces.
	Clips []Clip

	clipChunks []Chunk

	// Surface names in TAGS order.
	SurfaceNames []string
	Surfaces     []Chunk
}

// Encode a list of objects into an LWO2 document. Objects without a mesh are
// ignored. Each object is written to its own layer in list order.
func Encode(objects []*scene.Object, opts Options) (*Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	meshObjects := make([]*scene.Object, 0, len(objects))
	meshes := make([]*scene.Mesh, 0, len(objects))
	for _, obj := range objects {
		if obj == nil || obj.Mesh == nil {
			continue
		}
		if err := obj.Mesh.Validate(); err != nil {
			return nil, fmt.Errorf("lwo: object %q: %w", obj.Name, err)
		}
		meshObjects = append(meshObjects, obj)
		meshes = append(meshes, obj.Mesh)
	}
	if len(meshObjects) == 0 {
		return nil, ErrNoMeshes
	}

	tags := newTagTable(meshes)
	if tags.Len() > math.MaxUint16 {
		return nil, fmt.Errorf("lwo: %d surface tags exceed the 16-bit tag index", tags.Len())
	}

	doc := &Document{
		Objects:      make([]string, 0, len(meshObjects)),
		Geometry:     make([]Chunk, 0),
		SurfaceNames: make([]string, 0, tags.Len()),
		Surfaces:     make([]Chunk, 0, tags.Len()),
	}

	var err error
	if doc.Tags, err = newChunk(idTags, tags.payload(), nil); err != nil {
		return nil, err
	}

	for layerIndex, obj := range meshObjects {
		chunks, err := assembleMesh(layerIndex, obj, tags, opts)
		if err != nil {
			return nil, err
		}
		doc.Objects = append(doc.Objects, obj.Name)
		doc.Geometry = append(doc.Geometry, chunks...)
	}

	// Surfaces allocate clips so the clip list is complete only after every
	// surface has been built.
	clips := newClipRegistry()
	sb := &surfaceBuilder{opts: opts, clips: clips}
	for _, src := range tags.surfaces {
		payload, err := sb.build(src)
		surf, err := newChunk(idSurf, payload, err)
		if err != nil {
			return nil, fmt.Errorf("lwo: surface %q: %w", src.name, err)
		}
		doc.SurfaceNames = append(doc.SurfaceNames, src.name)
		doc.Surfaces = append(doc.Surfaces, surf)
	}

	if doc.clipChunks, err = clips.chunks(); err != nil {
		return nil, err
	}
	doc.Clips = clips.clips

	if size := doc.formSize(); size > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, size)
	}

	return doc, nil
}

// Get the list of top-level chunks in file order.
func (d *Document) Chunks() []Chunk {
	chunks := make([]Chunk, 0, 1+len(d.Geometry)+len(d.clipChunks)+len(d.Surfaces))
	chunks = append(chunks, d.Tags)
	chunks = append(chunks, d.Geometry...)
	chunks = append(chunks, d.clipChunks...)
	chunks = append(chunks, d.Surfaces...)
	return chunks
}

// The value stored in the FORM length field: the LWO2 type id plus every
// chunk including its header.
func (d *Document) formSize() int64 {
	size := int64(4)
	for _, chunk := range d.Chunks() {
		size += int64(chunk.Size())
	}
	return size
}

// Get the total number of bytes written by WriteTo.
func (d *Document) Size() int64 {
	return d.formSize() + 8
}

// Write the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var header [12]byte
	copy(header[0:4], idForm)
	binary.BigEndian.PutUint32(header[4:8], uint32(d.formSize()))
	copy(header[8:12], idLwo2)

	n, err := w.Write(header[:])
	written := int64(n)
	if err != nil {
		return written, err
	}

	for _, chunk := range d.Chunks() {
		n, err := chunk.WriteTo(w)
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// Serialize the document into a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(d.Size()))
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
