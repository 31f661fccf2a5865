package lwo

import "github.com/achilleasa/lwoexport/asset/scene"

const (
	// Surface name used for meshes without materials.
	DefaultSurfaceName = "Default"

	// Surface name used for meshes without materials that carry vertex colors.
	VertexColorSurfaceName = "Per-Face Vertex Colors"
)

// The source data for a surface.
type surfaceSource struct {
	name string

	// Nil for placeholder surfaces.
	material *scene.Material

	// The first mesh that references the surface.
	mesh *scene.Mesh
}

// The tag table maps surface names to the indices referenced by PTAG chunks.
type tagTable struct {
	surfaces []surfaceSource
	index    map[string]int
}

// Build the tag table for a list of meshes. Names are added in mesh order;
// the first occurrence of a name defines the surface.
func newTagTable(meshes []*scene.Mesh) *tagTable {
	t := &tagTable{
		surfaces: make([]surfaceSource, 0),
		index:    make(map[string]int),
	}

	for _, mesh := range meshes {
		caps := mesh.Capabilities()
		if !caps.HasMaterials {
			t.add(fallbackSurfaceName(caps), nil, mesh)
			continue
		}

		for _, mat := range mesh.UsedMaterials() {
			t.add(mat.Name, mat, mesh)
		}

		// Polygons assigned to an empty slot use the fallback surface
		for _, poly := range mesh.Polygons {
			if mesh.Materials[poly.Material] == nil {
				t.add(fallbackSurfaceName(caps), nil, mesh)
				break
			}
		}
	}

	return t
}

func (t *tagTable) add(name string, mat *scene.Material, mesh *scene.Mesh) int {
	if index, exists := t.index[name]; exists {
		return index
	}

	t.surfaces = append(t.surfaces, surfaceSource{name: name, material: mat, mesh: mesh})
	t.index[name] = len(t.surfaces) - 1
	return t.index[name]
}

// Get the number of entries in the table.
func (t *tagTable) Len() int {
	return len(t.surfaces)
}

// Get the tag index for a mesh polygon. Polygons without a material use
// the fallback tag.
func (t *tagTable) polygonTag(mesh *scene.Mesh, poly scene.Polygon, fallback int) int {
	if len(mesh.Materials) != 0 {
		if mat := mesh.Materials[poly.Material]; mat != nil {
			return t.index[mat.Name]
		}
	}
	return fallback
}

// Get the tag index used for mesh polygons without a material.
func (t *tagTable) fallbackTag(caps scene.Capabilities) int {
	return t.index[fallbackSurfaceName(caps)]
}

// Build the TAGS chunk payload.
func (t *tagTable) payload() []byte {
	var buf chunkBuffer
	for _, src := range t.surfaces {
		buf.Str(src.name)
	}
	return buf.Bytes()
}

// Select the surface name for polygons without a material.
func fallbackSurfaceName(caps scene.Capabilities) string {
	if caps.HasVertexColors {
		return VertexColorSurfaceName
	}
	return DefaultSurfaceName
}
