package lwo

import (
	"fmt"

	"github.com/achilleasa/lwoexport/asset/scene"
)

// A chunkList accumulates the chunks emitted for a mesh and stops at the
// first builder error.
type chunkList struct {
	chunks []Chunk
	err    error
}

func (l *chunkList) add(id string, payload []byte, err error) {
	if l.err != nil {
		return
	}
	chunk, err := newChunk(id, payload, err)
	if err != nil {
		l.err = err
		return
	}
	l.chunks = append(l.chunks, chunk)
}

// Append a chunk unless the payload is empty. Used for maps that may end up
// without any records.
func (l *chunkList) addOptional(id string, payload []byte, err error) {
	if err == nil && payload == nil {
		return
	}
	l.add(id, payload, err)
}

// Build the chunks for a single object mesh. All indices written for the
// mesh share the same index form which is selected from the point count and
// the number of polygons including loose edge rails.
func assembleMesh(layerIndex int, obj *scene.Object, tags *tagTable, opts Options) ([]Chunk, error) {
	mesh := obj.Mesh
	caps := mesh.Capabilities()
	looseEdges := mesh.LooseEdges()
	form := selectIndexForm(len(mesh.Points), len(mesh.Polygons)+len(looseEdges))
	extended := !opts.IdTechCompatible

	var list chunkList

	payload, err := buildLayer(layerIndex, obj)
	list.add(idLayr, payload, err)
	list.add(idPnts, buildPoints(mesh, opts.Scale), nil)
	list.add(idBbox, buildBBox(mesh, opts.Scale), nil)

	if extended && caps.HasVertexNormals {
		payload, err = buildVertexNormals(mesh, form, opts.Scale)
		list.add(idVmap, payload, err)
	}

	if caps.HasVertexColors {
		for _, layer := range mesh.ColorLayers {
			payload, err = buildColorMap(mesh, layer, form, opts.IdTechCompatible)
			list.addOptional(idVmad, payload, err)
		}
	}

	payload, err = buildPolygons(mesh, looseEdges, form, opts.Subpatch)
	list.add(idPols, payload, err)

	if extended && caps.HasLoopNormals {
		payload, err = buildLoopNormals(mesh, form, opts.Scale)
		list.addOptional(idVmad, payload, err)
	}

	payload, err = buildPolygonTags(mesh, caps, tags, form)
	list.add(idPtag, payload, err)

	if caps.HasUV {
		for _, layer := range mesh.UVLayers {
			payload, err = buildUVMap(mesh, layer, form)
			list.addOptional(idVmad, payload, err)
		}
	}

	if extended {
		if caps.HasCreases {
			payload, err = buildEdgeWeights(mesh, form)
			list.addOptional(idVmad, payload, err)
		}

		if obj.HasWeightGroups() {
			for _, group := range obj.WeightGroups {
				payload, err = buildWeightMap(mesh, group, form)
				list.add(idVmap, payload, err)
			}
		}

		if caps.HasMorphs {
			for _, morph := range mesh.Morphs {
				payload, err = buildMorphMap(mesh, morph, form, opts.Scale)
				list.add(idVmap, payload, err)
			}
		}
	}

	if list.err != nil {
		return nil, fmt.Errorf("object %q: %w", obj.Name, list.err)
	}
	return list.chunks, nil
}
