package scene

import (
	"math"
	"sort"

	"github.com/achilleasa/lwoexport/types"
)

// Auto smooth angle applied to meshes that do not define one (30 degrees).
const DefaultAutoSmoothAngle = float32(30 * math.Pi / 180)

// A weight group assigns per point weights. Points missing from the
// weight map have a zero weight.
type WeightGroup struct {
	Name    string
	Weights map[int]float32
}

// Get the weight for a point.
func (wg *WeightGroup) Weight(point int) float32 {
	return wg.Weights[point]
}

// An object places a mesh in the scene.
type Object struct {
	Name string

	// Object pivot.
	Location types.Vec3

	Mesh         *Mesh
	WeightGroups []*WeightGroup
}

// True if the object defines any weight groups.
func (o *Object) HasWeightGroups() bool {
	return len(o.WeightGroups) > 0
}

// The scene contains the objects and materials to export.
type Scene struct {
	Objects   []*Object
	Materials []*Material
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Objects:   make([]*Object, 0),
		Materials: make([]*Material, 0),
	}
}

// Lookup an object by name.
func (sc *Scene) Object(name string) *Object {
	for _, obj := range sc.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// Return the objects that carry a mesh sorted by name. If names is not
// empty only objects whose name appears in the list are returned.
func (sc *Scene) MeshObjects(names ...string) []*Object {
	var filter map[string]struct{}
	if len(names) != 0 {
		filter = make(map[string]struct{}, len(names))
		for _, name := range names {
			filter[name] = struct{}{}
		}
	}

	objects := make([]*Object, 0, len(sc.Objects))
	for _, obj := range sc.Objects {
		if obj.Mesh == nil {
			continue
		}
		if filter != nil {
			if _, selected := filter[obj.Name]; !selected {
				continue
			}
		}
		objects = append(objects, obj)
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Name < objects[j].Name
	})
	return objects
}
