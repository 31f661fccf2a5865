package reader

import (
	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/types"
)

// An objectBuilder collects the geometry of a wavefront object. Vertices are
// shared between all objects in a file so each builder keeps its own
// mapping from file vertex indices to mesh points.
type objectBuilder struct {
	obj  *scene.Object
	mesh *scene.Mesh

	pointIndex  map[int]int
	vertexIndex []int

	// Material slots in first use order. A nil entry collects faces
	// defined before any usemtl statement.
	slots     []*wavefrontMaterial
	slotIndex map[*wavefrontMaterial]int

	// Per corner attributes.
	uvs   []types.Vec2
	hasUV bool

	edgeIndex map[[2]int]int

	morphs     map[string]map[int]types.Vec3
	morphOrder []string
}

func newObjectBuilder(name string) *objectBuilder {
	mesh := scene.NewMesh()
	mesh.LoopNormals = make([]types.Vec3, 0)

	return &objectBuilder{
		obj: &scene.Object{
			Name:         name,
			Mesh:         mesh,
			WeightGroups: make([]*scene.WeightGroup, 0),
		},
		mesh:        mesh,
		pointIndex:  make(map[int]int),
		vertexIndex: make([]int, 0),
		slots:       make([]*wavefrontMaterial, 0),
		slotIndex:   make(map[*wavefrontMaterial]int),
		uvs:         make([]types.Vec2, 0),
		edgeIndex:   make(map[[2]int]int),
		morphs:      make(map[string]map[int]types.Vec3),
		morphOrder:  make([]string, 0),
	}
}

// True if the object contains no polygons and no edges.
func (b *objectBuilder) isEmpty() bool {
	return len(b.mesh.Polygons) == 0 && len(b.mesh.Edges) == 0
}

// Get the mesh point for a file vertex, allocating it on first use.
func (b *objectBuilder) point(vertex int) int {
	if index, exists := b.pointIndex[vertex]; exists {
		return index
	}

	index := len(b.vertexIndex)
	b.vertexIndex = append(b.vertexIndex, vertex)
	b.pointIndex[vertex] = index
	return index
}

// Get the material slot for a material, allocating it on first use.
func (b *objectBuilder) slot(mat *wavefrontMaterial) int {
	if index, exists := b.slotIndex[mat]; exists {
		return index
	}

	b.slots = append(b.slots, mat)
	b.slotIndex[mat] = len(b.slots) - 1
	return len(b.slots) - 1
}

// Append a polygon with per corner normals. uvs may be nil.
func (b *objectBuilder) addPolygon(vertices []int, mat *wavefrontMaterial, normals []types.Vec3, uvs []types.Vec2) {
	poly := scene.Polygon{
		Points:   make([]int, len(vertices)),
		Material: b.slot(mat),
	}
	for i, vertex := range vertices {
		poly.Points[i] = b.point(vertex)
	}

	b.mesh.Polygons = append(b.mesh.Polygons, poly)
	b.mesh.LoopNormals = append(b.mesh.LoopNormals, normals...)

	if uvs != nil {
		b.uvs = append(b.uvs, uvs...)
		b.hasUV = true
	} else {
		b.uvs = append(b.uvs, make([]types.Vec2, len(vertices))...)
	}
}

// Get the edge between two points, creating it if needed.
func (b *objectBuilder) edge(p0, p1 int) *scene.Edge {
	key := scene.EdgeKey(p0, p1)
	index, exists := b.edgeIndex[key]
	if !exists {
		b.mesh.Edges = append(b.mesh.Edges, scene.Edge{A: p0, B: p1})
		index = len(b.mesh.Edges) - 1
		b.edgeIndex[key] = index
	}
	return &b.mesh.Edges[index]
}

// Get a weight group by name, creating it if needed.
func (b *objectBuilder) weightGroup(name string) *scene.WeightGroup {
	for _, group := range b.obj.WeightGroups {
		if group.Name == name {
			return group
		}
	}

	group := &scene.WeightGroup{Name: name, Weights: make(map[int]float32)}
	b.obj.WeightGroups = append(b.obj.WeightGroups, group)
	return group
}

// Get the point positions of a morph target by name, creating it if needed.
func (b *objectBuilder) morph(name string) map[int]types.Vec3 {
	positions, exists := b.morphs[name]
	if !exists {
		positions = make(map[int]types.Vec3)
		b.morphs[name] = positions
		b.morphOrder = append(b.morphOrder, name)
	}
	return positions
}

// Generate the scene object.
func (b *objectBuilder) build(r *wavefrontSceneReader) *scene.Object {
	mesh := b.mesh

	mesh.Points = make([]types.Vec3, len(b.vertexIndex))
	anyColor := false
	for point, vertex := range b.vertexIndex {
		mesh.Points[point] = r.vertexList[vertex]
		anyColor = anyColor || r.hasColor[vertex]
	}

	// Objects that never select a material keep an empty slot list
	if len(b.slots) > 1 || (len(b.slots) == 1 && b.slots[0] != nil) {
		mesh.Materials = make([]*scene.Material, len(b.slots))
		for index, wfMat := range b.slots {
			if wfMat != nil {
				mesh.Materials[index] = wfMat.material
			}
		}
	}

	if b.hasUV {
		mesh.UVLayers = []*scene.UVLayer{{Name: uvLayerName, Data: b.uvs}}
	}

	if anyColor {
		layer := &scene.ColorLayer{
			Name: colorLayerName,
			Data: make([]types.Vec4, 0, len(mesh.LoopNormals)),
		}
		for _, poly := range mesh.Polygons {
			for _, point := range poly.Points {
				layer.Data = append(layer.Data, r.colorList[b.vertexIndex[point]].Vec4(1))
			}
		}
		mesh.ColorLayers = []*scene.ColorLayer{layer}
	}

	// Vertex normals average the normals of all corners sharing a point
	if len(mesh.Polygons) != 0 {
		mesh.VertexNormals = make([]types.Vec3, len(mesh.Points))
		corner := 0
		for _, poly := range mesh.Polygons {
			for _, point := range poly.Points {
				mesh.VertexNormals[point] = mesh.VertexNormals[point].Add(mesh.LoopNormals[corner])
				corner++
			}
		}
		for point, n := range mesh.VertexNormals {
			mesh.VertexNormals[point] = n.Normalize()
		}
	} else {
		mesh.LoopNormals = nil
	}

	for _, name := range b.morphOrder {
		target := &scene.MorphTarget{
			Name:      name,
			Positions: make([]types.Vec3, len(mesh.Points)),
		}
		copy(target.Positions, mesh.Points)
		for point, pos := range b.morphs[name] {
			target.Positions[point] = pos
		}
		mesh.Morphs = append(mesh.Morphs, target)
	}

	return b.obj
}
