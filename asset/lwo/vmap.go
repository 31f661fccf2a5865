package lwo

import "github.com/achilleasa/lwoexport/asset/scene"

// Vertex map types.
const (
	vmapNormal = "NORM"
	vmapRGB    = "RGB "
	vmapRGBA   = "RGBA"
	vmapUV     = "TXUV"
	vmapWeight = "WGHT"
	vmapMorph  = "MORF"
)

const (
	normalMapName     = "vert_normals"
	edgeWeightMapName = "Edge Weight"

	// Alpha written for color layers that do not carry alpha values.
	defaultVertexAlpha = 0.5
)

// Write the VMAP/VMAD header: map type, dimension and name.
func writeVMapHeader(buf *chunkBuffer, mapType string, dimension uint16, name string) {
	buf.Tag(mapType)
	buf.U16(dimension)
	buf.Str(name)
}

// Build a VMAP payload with per point normals.
func buildVertexNormals(mesh *scene.Mesh, form indexForm, scale float32) ([]byte, error) {
	var buf chunkBuffer
	writeVMapHeader(&buf, vmapNormal, 3, normalMapName)
	for pointIndex, n := range mesh.VertexNormals {
		buf.Index(form, pointIndex)
		buf.Vec3(n.Mul(scale).XZY())
	}
	return buf.Payload()
}

// Build a VMAP payload for a weight group. Every point gets a record.
func buildWeightMap(mesh *scene.Mesh, group *scene.WeightGroup, form indexForm) ([]byte, error) {
	var buf chunkBuffer
	writeVMapHeader(&buf, vmapWeight, 1, group.Name)
	for pointIndex := range mesh.Points {
		buf.Index(form, pointIndex)
		buf.F32(group.Weight(pointIndex))
	}
	return buf.Payload()
}

// Build a VMAP payload for a morph target. Records store the offset of each
// point from its base position.
func buildMorphMap(mesh *scene.Mesh, morph *scene.MorphTarget, form indexForm, scale float32) ([]byte, error) {
	var buf chunkBuffer
	writeVMapHeader(&buf, vmapMorph, 3, morph.Name)
	for pointIndex, base := range mesh.Points {
		buf.Index(form, pointIndex)
		// Deltas are scaled like the base points they offset
		buf.Vec3(morph.Positions[pointIndex].Sub(base).Mul(scale).XZY())
	}
	return buf.Payload()
}

// A vmadBuilder emits per polygon corner records. The found flag tracks
// whether any record was written so that empty maps can be skipped.
type vmadBuilder struct {
	buf   chunkBuffer
	form  indexForm
	found bool
}

func newVMadBuilder(form indexForm, mapType string, dimension uint16, name string) *vmadBuilder {
	b := &vmadBuilder{form: form}
	writeVMapHeader(&b.buf, mapType, dimension, name)
	return b
}

// Write the point and polygon index of a record.
func (b *vmadBuilder) record(pointIndex, polyIndex int) *chunkBuffer {
	b.found = true
	b.buf.Index(b.form, pointIndex)
	b.buf.Index(b.form, polyIndex)
	return &b.buf
}

// Get the payload; nil is returned if no records were written.
func (b *vmadBuilder) payload() ([]byte, error) {
	if err := b.buf.Err(); err != nil {
		return nil, err
	}
	if !b.found {
		return nil, nil
	}
	return b.buf.Bytes(), nil
}

// Build a VMAD payload for a color layer. When rgba is set colors are
// written with 4 components.
func buildColorMap(mesh *scene.Mesh, layer *scene.ColorLayer, form indexForm, rgba bool) ([]byte, error) {
	var b *vmadBuilder
	if rgba {
		b = newVMadBuilder(form, vmapRGBA, 4, layer.Name)
	} else {
		b = newVMadBuilder(form, vmapRGB, 3, layer.Name)
	}

	corner := 0
	for polyIndex, poly := range mesh.Polygons {
		for _, pointIndex := range poly.Points {
			col := layer.Data[corner]
			corner++

			buf := b.record(pointIndex, polyIndex)
			buf.Vec3(col.Vec3())
			if rgba {
				alpha := float32(defaultVertexAlpha)
				if layer.HasAlpha {
					alpha = col[3]
				}
				buf.F32(alpha)
			}
		}
	}

	return b.payload()
}

// Build a VMAD payload for a uv layer. A corner whose neighbors within the
// polygon share the same uv value is skipped; readers recover it from the
// shared point.
func buildUVMap(mesh *scene.Mesh, layer *scene.UVLayer, form indexForm) ([]byte, error) {
	b := newVMadBuilder(form, vmapUV, 2, layer.Name)

	offsets := mesh.CornerOffsets()
	for polyIndex, poly := range mesh.Polygons {
		count := len(poly.Points)
		base := offsets[polyIndex]
		for i, pointIndex := range poly.Points {
			uv := layer.Data[base+i]
			prev := layer.Data[base+(i+count-1)%count]
			next := layer.Data[base+(i+1)%count]
			if prev == uv && next == uv {
				continue
			}

			buf := b.record(pointIndex, polyIndex)
			buf.F32(uv[0])
			buf.F32(uv[1])
		}
	}

	return b.payload()
}

// Build a VMAD payload with per corner normals.
func buildLoopNormals(mesh *scene.Mesh, form indexForm, scale float32) ([]byte, error) {
	b := newVMadBuilder(form, vmapNormal, 3, normalMapName)

	corner := 0
	for polyIndex, poly := range mesh.Polygons {
		for _, pointIndex := range poly.Points {
			n := mesh.LoopNormals[corner]
			corner++
			b.record(pointIndex, polyIndex).Vec3(n.Mul(scale).XZY())
		}
	}

	return b.payload()
}

// Build a VMAD payload with edge crease weights. Each creased polygon edge
// produces a record for the edge endpoint that follows the other endpoint
// in polygon order.
func buildEdgeWeights(mesh *scene.Mesh, form indexForm) ([]byte, error) {
	creases := make(map[[2]int]float32)
	for _, edge := range mesh.Edges {
		if edge.Crease != 0 {
			creases[edge.Key()] = edge.Crease
		}
	}

	b := newVMadBuilder(form, vmapWeight, 1, edgeWeightMapName)
	for polyIndex, poly := range mesh.Polygons {
		count := len(poly.Points)
		for i := 0; i < count; i++ {
			from, to := poly.Points[i], poly.Points[(i+1)%count]
			crease, exists := creases[scene.EdgeKey(from, to)]
			if !exists {
				continue
			}
			b.record(to, polyIndex).F32(crease)
		}
	}

	return b.payload()
}
