package reader

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lwoexport/asset"
	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/log"
	"github.com/achilleasa/lwoexport/types"
)

const (
	uvLayerName    = "UVMap"
	colorLayerName = "Col"
)

type wavefrontSceneReader struct {
	logger log.Logger

	// Parsed objects in definition order.
	objects []*objectBuilder

	// Object receiving faces, lines and extension directives.
	curObject *objectBuilder

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// Optional per vertex colors; entries for vertices without a color
	// are white.
	colorList []types.Vec3
	hasColor  []bool

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new text scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		objects:        make([]*objectBuilder, 0),
		matNameToIndex: make(map[string]int, 0),
		vertexList:     make([]types.Vec3, 0),
		normalList:     make([]types.Vec3, 0),
		uvList:         make([]types.Vec2, 0),
		colorList:      make([]types.Vec3, 0),
		hasColor:       make([]bool, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// Parse scene
	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// Checked once all included files are parsed
	r.verifyLastParsedObject()

	sc := scene.NewScene()
	for _, ob := range r.objects {
		sc.Objects = append(sc.Objects, ob.build(r))
	}

	// Prune unused materials
	for _, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			continue
		}
		sc.Materials = append(sc.Materials, wfMat.material)
	}

	r.logger.Noticef("parsed %d objects and %d materials in %d ms", len(sc.Objects), len(sc.Materials), time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Get the object that receives geometry, creating a default one if no
// object has been defined yet.
func (r *wavefrontSceneReader) currentObject() *objectBuilder {
	if r.curObject == nil {
		r.curObject = newObjectBuilder("default")
		r.objects = append(r.objects, r.curObject)
	}
	return r.curObject
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	offsets := coordOffsets{
		vertex: len(r.vertexList),
		uv:     len(r.uvList),
		normal: len(r.normalList),
	}

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			defer incRes.Close()

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			// Lookup material
			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}

			// Activate material
			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)

			// Vertex colors are specified as "v x y z r g b"
			col := types.Vec3{1, 1, 1}
			hasColor := len(lineTokens) == 7
			if hasColor {
				if col, err = parseVec3(append(lineTokens[:1:1], lineTokens[4:]...)); err != nil {
					return r.emitError(res.Path(), lineNum, "%s", err.Error())
				}
			}
			r.colorList = append(r.colorList, col)
			r.hasColor = append(r.hasColor, hasColor)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedObject()
			r.curObject = newObjectBuilder(strings.Join(lineTokens[1:], " "))
			r.objects = append(r.objects, r.curObject)
		case "f":
			if err = r.parseFace(lineTokens, offsets); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "l":
			if err = r.parseLine(lineTokens, offsets); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "s":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "s"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			mesh := r.currentObject().mesh
			mesh.AutoSmooth = lineTokens[1] != "off" && lineTokens[1] != "0"
		case "smooth_angle":
			degrees, err := parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.currentObject().mesh.AutoSmoothAngle = degrees * math.Pi / 180.0
		case "pivot":
			if r.currentObject().obj.Location, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "crease":
			if err = r.parseCrease(lineTokens, offsets); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "vgroup":
			if err = r.parseWeight(lineTokens, offsets); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "morph":
			if err = r.parseMorph(lineTokens, offsets); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	return nil
}

// Drop the last parsed object if it contains no polygons or edges.
func (r *wavefrontSceneReader) verifyLastParsedObject() {
	lastIndex := len(r.objects) - 1
	if lastIndex >= 0 && r.objects[lastIndex].isEmpty() {
		r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.objects[lastIndex].obj.Name)
		r.objects = r.objects[:lastIndex]
		r.curObject = nil
	}
}

// Coordinate list lengths at the start of the file being parsed.
type coordOffsets struct {
	vertex, uv, normal int
}

// Parse face definition. Each face definitions consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, offsets coordOffsets) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1
	vertices := make([]int, argCount)
	uvs := make([]types.Vec2, argCount)
	normals := make([]types.Vec3, argCount)

	var err error
	expIndices := 0
	hasUV := false
	hasNormals := false
	for arg := 0; arg < argCount; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vertices[arg], err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), offsets.vertex)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		// Parse UV coords if specified
		if expIndices > 1 && vTokens[1] != "" {
			uvOffset, err := selectFaceCoordIndex(vTokens[1], len(r.uvList), offsets.uv)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uvs[arg] = r.uvList[uvOffset]
			hasUV = true
		}

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			nOffset, err := selectFaceCoordIndex(vTokens[2], len(r.normalList), offsets.normal)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[nOffset]
			hasNormals = true
		}
	}

	// If no normals are available generate them from the vertices
	if !hasNormals {
		faceNormal := r.faceNormal(vertices)
		for arg := range normals {
			normals[arg] = faceNormal
		}
	}

	// Flag the current material as being in use so we don't prune it later.
	if r.curMaterial != nil {
		r.curMaterial.Used = true
	}

	if !hasUV {
		uvs = nil
	}
	r.currentObject().addPolygon(vertices, r.curMaterial, normals, uvs)
	return nil
}

// Calculate the normal of a polygon using Newell's method so that concave
// and non-planar n-gons get a stable result.
func (r *wavefrontSceneReader) faceNormal(vertices []int) types.Vec3 {
	var n types.Vec3
	for i := range vertices {
		cur := r.vertexList[vertices[i]]
		next := r.vertexList[vertices[(i+1)%len(vertices)]]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n.Normalize()
}

// Parse a polyline definition. Each pair of consecutive vertices defines an
// edge. Only the vertex index of each argument is used.
func (r *wavefrontSceneReader) parseLine(lineTokens []string, offsets coordOffsets) error {
	if len(lineTokens) < 3 {
		return fmt.Errorf(`unsupported syntax for "l"; expected at least 2 arguments; got %d`, len(lineTokens)-1)
	}

	ob := r.currentObject()
	prev := -1
	for arg, token := range lineTokens[1:] {
		vertex, err := selectFaceCoordIndex(strings.Split(token, "/")[0], len(r.vertexList), offsets.vertex)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for line argument %d: %s", arg, err.Error())
		}

		point := ob.point(vertex)
		if prev != -1 {
			ob.edge(prev, point)
		}
		prev = point
	}
	return nil
}

// Parse an edge crease definition: crease v1 v2 weight
func (r *wavefrontSceneReader) parseCrease(lineTokens []string, offsets coordOffsets) error {
	if len(lineTokens) != 4 {
		return fmt.Errorf(`unsupported syntax for "crease"; expected 3 arguments: v1 v2 weight; got %d`, len(lineTokens)-1)
	}

	ob := r.currentObject()
	var points [2]int
	for arg := 0; arg < 2; arg++ {
		vertex, err := selectFaceCoordIndex(lineTokens[arg+1], len(r.vertexList), offsets.vertex)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for crease argument %d: %s", arg, err.Error())
		}
		points[arg] = ob.point(vertex)
	}

	weight, err := strconv.ParseFloat(lineTokens[3], 32)
	if err != nil {
		return err
	}

	ob.edge(points[0], points[1]).Crease = float32(weight)
	return nil
}

// Parse a weight group assignment: vgroup name vertex weight
func (r *wavefrontSceneReader) parseWeight(lineTokens []string, offsets coordOffsets) error {
	if len(lineTokens) != 4 {
		return fmt.Errorf(`unsupported syntax for "vgroup"; expected 3 arguments: name vertex weight; got %d`, len(lineTokens)-1)
	}

	vertex, err := selectFaceCoordIndex(lineTokens[2], len(r.vertexList), offsets.vertex)
	if err != nil {
		return fmt.Errorf("could not parse vertex coord for weight group: %s", err.Error())
	}

	weight, err := strconv.ParseFloat(lineTokens[3], 32)
	if err != nil {
		return err
	}

	ob := r.currentObject()
	ob.weightGroup(lineTokens[1]).Weights[ob.point(vertex)] = float32(weight)
	return nil
}

// Parse a morph target position: morph name vertex x y z
func (r *wavefrontSceneReader) parseMorph(lineTokens []string, offsets coordOffsets) error {
	if len(lineTokens) != 6 {
		return fmt.Errorf(`unsupported syntax for "morph"; expected 5 arguments: name vertex x y z; got %d`, len(lineTokens)-1)
	}

	vertex, err := selectFaceCoordIndex(lineTokens[2], len(r.vertexList), offsets.vertex)
	if err != nil {
		return fmt.Errorf("could not parse vertex coord for morph target: %s", err.Error())
	}

	pos, err := parseVec3(append(lineTokens[:1:1], lineTokens[3:]...))
	if err != nil {
		return err
	}

	ob := r.currentObject()
	ob.morph(lineTokens[1])[ob.point(vertex)] = pos
	return nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
