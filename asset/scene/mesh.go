package scene

import (
	"fmt"

	"github.com/achilleasa/lwoexport/types"
)

// A polygon references mesh points by index. Point order defines the
// polygon winding.
type Polygon struct {
	Points []int

	// Index into the mesh material slot list.
	Material int
}

// An edge between two mesh points. Edges that are not used by any polygon
// are treated as loose edges.
type Edge struct {
	A, B   int
	Crease float32
}

// Key returns an order-independent key for the edge endpoints.
func (e Edge) Key() [2]int {
	return EdgeKey(e.A, e.B)
}

// EdgeKey returns an order-independent key for an edge between a and b.
func EdgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// A named per-corner color layer.
type ColorLayer struct {
	Name string

	// True if the layer carries meaningful alpha values.
	HasAlpha bool

	// One entry per polygon corner.
	Data []types.Vec4
}

// A named per-corner texture coordinate layer.
type UVLayer struct {
	Name string

	// One entry per polygon corner.
	Data []types.Vec2
}

// A morph target stores absolute point positions.
type MorphTarget struct {
	Name      string
	Positions []types.Vec3
}

// Capabilities describe the optional attribute data available for a mesh.
type Capabilities struct {
	HasVertexColors  bool
	HasUV            bool
	HasVertexNormals bool
	HasLoopNormals   bool
	HasCreases       bool
	HasMorphs        bool
	HasMaterials     bool
}

// A mesh snapshot. All transforms and modifiers have already been applied.
type Mesh struct {
	Points   []types.Vec3
	Polygons []Polygon
	Edges    []Edge

	ColorLayers []*ColorLayer
	UVLayers    []*UVLayer

	// Per point normals.
	VertexNormals []types.Vec3

	// Per corner normals.
	LoopNormals []types.Vec3

	Morphs []*MorphTarget

	// Material slots; entries may be nil.
	Materials []*Material

	// Auto smoothing settings; angle in radians.
	AutoSmooth      bool
	AutoSmoothAngle float32
}

// Create a new empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		Points:          make([]types.Vec3, 0),
		Polygons:        make([]Polygon, 0),
		Edges:           make([]Edge, 0),
		AutoSmoothAngle: DefaultAutoSmoothAngle,
	}
}

// Get the total number of polygon corners.
func (m *Mesh) CornerCount() int {
	count := 0
	for _, poly := range m.Polygons {
		count += len(poly.Points)
	}
	return count
}

// Get the offset of each polygon's first corner in per-corner layers.
func (m *Mesh) CornerOffsets() []int {
	offsets := make([]int, len(m.Polygons))
	offset := 0
	for index, poly := range m.Polygons {
		offsets[index] = offset
		offset += len(poly.Points)
	}
	return offsets
}

// Return the list of edges that are not referenced by any polygon.
func (m *Mesh) LooseEdges() []Edge {
	used := make(map[[2]int]struct{})
	for _, poly := range m.Polygons {
		count := len(poly.Points)
		for i := 0; i < count; i++ {
			used[EdgeKey(poly.Points[i], poly.Points[(i+1)%count])] = struct{}{}
		}
	}

	loose := make([]Edge, 0)
	for _, edge := range m.Edges {
		if _, exists := used[edge.Key()]; !exists {
			loose = append(loose, edge)
		}
	}
	return loose
}

// Return the list of materials assigned to non-empty slots.
func (m *Mesh) UsedMaterials() []*Material {
	used := make([]*Material, 0)
	for _, mat := range m.Materials {
		if mat != nil {
			used = append(used, mat)
		}
	}
	return used
}

// Compute the mesh capability flags.
func (m *Mesh) Capabilities() Capabilities {
	caps := Capabilities{
		HasVertexColors:  len(m.ColorLayers) > 0,
		HasUV:            len(m.UVLayers) > 0,
		HasVertexNormals: len(m.Points) > 0 && len(m.VertexNormals) == len(m.Points),
		HasLoopNormals:   len(m.Polygons) > 0 && len(m.LoopNormals) == m.CornerCount(),
		HasMorphs:        len(m.Morphs) > 0,
		HasMaterials:     len(m.UsedMaterials()) > 0,
	}

	for _, edge := range m.Edges {
		if edge.Crease != 0 {
			caps.HasCreases = true
			break
		}
	}

	return caps
}

// Validate the mesh contents. Out of range point references and attribute
// layers whose size does not match the mesh topology are rejected.
func (m *Mesh) Validate() error {
	pointCount := len(m.Points)
	for polyIndex, poly := range m.Polygons {
		if len(poly.Points) < 3 {
			return fmt.Errorf("polygon %d: expected at least 3 points; got %d", polyIndex, len(poly.Points))
		}
		for _, pointIndex := range poly.Points {
			if pointIndex < 0 || pointIndex >= pointCount {
				return fmt.Errorf("polygon %d: point index %d out of range [0, %d)", polyIndex, pointIndex, pointCount)
			}
		}
		if len(m.Materials) != 0 && (poly.Material < 0 || poly.Material >= len(m.Materials)) {
			return fmt.Errorf("polygon %d: material slot %d out of range [0, %d)", polyIndex, poly.Material, len(m.Materials))
		}
	}

	for edgeIndex, edge := range m.Edges {
		if edge.A < 0 || edge.A >= pointCount || edge.B < 0 || edge.B >= pointCount {
			return fmt.Errorf("edge %d: point index out of range [0, %d)", edgeIndex, pointCount)
		}
	}

	cornerCount := m.CornerCount()
	for _, layer := range m.ColorLayers {
		if len(layer.Data) != cornerCount {
			return fmt.Errorf("color layer %q: expected %d corner values; got %d", layer.Name, cornerCount, len(layer.Data))
		}
	}
	for _, layer := range m.UVLayers {
		if len(layer.Data) != cornerCount {
			return fmt.Errorf("uv layer %q: expected %d corner values; got %d", layer.Name, cornerCount, len(layer.Data))
		}
	}
	if len(m.LoopNormals) != 0 && len(m.LoopNormals) != cornerCount {
		return fmt.Errorf("loop normals: expected %d corner values; got %d", cornerCount, len(m.LoopNormals))
	}
	if len(m.VertexNormals) != 0 && len(m.VertexNormals) != pointCount {
		return fmt.Errorf("vertex normals: expected %d values; got %d", pointCount, len(m.VertexNormals))
	}
	for _, morph := range m.Morphs {
		if len(morph.Positions) != pointCount {
			return fmt.Errorf("morph %q: expected %d positions; got %d", morph.Name, pointCount, len(morph.Positions))
		}
	}

	return nil
}
