package lwo

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/types"
)

var layerNameReplacer = strings.NewReplacer(" ", "_", ".", "_")

// Build a LAYR payload. The pivot is written in output axis order but is
// not scaled.
func buildLayer(index int, obj *scene.Object) ([]byte, error) {
	if index > 0xFFFF {
		return nil, fmt.Errorf("layer index %d exceeds 65535", index)
	}

	var buf chunkBuffer
	buf.U16(uint16(index))
	buf.U16(0) // flags
	buf.Vec3(obj.Location.XZY())
	buf.Str(layerNameReplacer.Replace(obj.Name))
	return buf.Payload()
}

// Build a PNTS payload.
func buildPoints(mesh *scene.Mesh, scale float32) []byte {
	var buf chunkBuffer
	buf.Grow(len(mesh.Points) * 12)
	for _, p := range mesh.Points {
		buf.Vec3(p.Mul(scale).XZY())
	}
	return buf.Bytes()
}

// Build a BBOX payload. Meshes without points get a zero-sized box.
func buildBBox(mesh *scene.Mesh, scale float32) []byte {
	var min, max types.Vec3
	for index, p := range mesh.Points {
		p = p.Mul(scale).XZY()
		if index == 0 {
			min, max = p, p
			continue
		}
		min = types.MinVec3(min, p)
		max = types.MaxVec3(max, p)
	}

	var buf chunkBuffer
	buf.Vec3(min)
	buf.Vec3(max)
	return buf.Bytes()
}

// Build a POLS payload. Polygon points are written in reverse order. Loose
// edges are appended as 2 point polygons.
func buildPolygons(mesh *scene.Mesh, looseEdges []scene.Edge, form indexForm, subpatch bool) ([]byte, error) {
	var buf chunkBuffer
	if subpatch {
		buf.Tag("SUBD")
	} else {
		buf.Tag("FACE")
	}

	for polyIndex, poly := range mesh.Polygons {
		count := len(poly.Points)
		if count > maxPolygonPoints {
			return nil, fmt.Errorf("%w: polygon %d has %d points", ErrPolygonTooLarge, polyIndex, count)
		}

		buf.U16(uint16(count))
		for i := count - 1; i >= 0; i-- {
			buf.Index(form, poly.Points[i])
		}
	}

	for _, edge := range looseEdges {
		buf.U16(2)
		buf.Index(form, edge.A)
		buf.Index(form, edge.B)
	}

	return buf.Payload()
}

// Build a PTAG payload that maps each polygon to a surface tag.
func buildPolygonTags(mesh *scene.Mesh, caps scene.Capabilities, tags *tagTable, form indexForm) ([]byte, error) {
	fallback := tags.fallbackTag(caps)

	var buf chunkBuffer
	buf.Tag("SURF")
	for polyIndex, poly := range mesh.Polygons {
		buf.Index(form, polyIndex)
		buf.U16(uint16(tags.polygonTag(mesh, poly, fallback)))
	}
	return buf.Payload()
}
