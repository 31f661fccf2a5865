package lwo

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/types"
)

func TestGlossFromHardness(t *testing.T) {
	specs := []struct {
		hardness float32
		exp      float32
	}{
		{0, 0},
		{3, 0},
		{4, 0},
		{104, 0.5},
		{404, 1},
	}

	for specIndex, spec := range specs {
		if got := glossFromHardness(spec.hardness); math.Abs(float64(got-spec.exp)) > 1e-6 {
			t.Errorf("[spec %d] expected gloss %v; got %v", specIndex, spec.exp, got)
		}
	}
}

func TestTextureOrdinal(t *testing.T) {
	specs := []struct {
		slotCount, slotIndex int
		exp                  uint8
	}{
		{1, 0, 128},
		{8, 1, 144},
		{8, 7, 240},
		{9, 2, 144},
		{18, 3, 140},
		{128, 127, 255},
	}

	for specIndex, spec := range specs {
		got, err := textureOrdinal(spec.slotCount, spec.slotIndex)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error %v", specIndex, err)
		}
		if got != spec.exp {
			t.Errorf("[spec %d] expected ordinal %d; got %d", specIndex, spec.exp, got)
		}
	}

	if _, err := textureOrdinal(129, 0); err != ErrTooManyTextureSlots {
		t.Fatalf("expected ErrTooManyTextureSlots; got %v", err)
	}
}

func TestLookupShading(t *testing.T) {
	sh, found := lookupShading(nil)
	if found {
		t.Fatal("expected lookup for a nil material to fail")
	}
	if !reflect.DeepEqual(sh, fallbackShading()) {
		t.Fatalf("expected fallback shading; got %+v", sh)
	}

	mat := scene.NewMaterial("glass")
	mat.Alpha = 0.25
	mat.IOR = 1.5
	mat.Mirror = scene.Mirror{Enabled: true, Reflect: 0.3, Gloss: 0.75}
	sh, found = lookupShading(mat)
	if !found {
		t.Fatal("expected lookup to succeed")
	}
	if sh.transparency != 0.75 || sh.ior != 1.5 || sh.reflection != 0.3 || sh.reflectionBlur != 0.25 {
		t.Fatalf("unexpected shading coefficients %+v", sh)
	}

	mat.Mirror.Enabled = false
	if sh, _ = lookupShading(mat); sh.reflection != 0 {
		t.Fatalf("expected no reflection when mirror is disabled; got %v", sh.reflection)
	}

	mat.Diffuse = float32(math.NaN())
	if _, found = lookupShading(mat); found {
		t.Fatal("expected lookup to fail for non-finite coefficients")
	}
}

func TestSmoothingAngle(t *testing.T) {
	mesh := scene.NewMesh()
	mesh.AutoSmoothAngle = 0.5

	specs := []struct {
		idTech, smoothed, autoSmooth bool
		exp                          float32
	}{
		{true, false, false, 0},
		{true, false, true, 0.5},
		{false, true, false, 0.5},
		{false, false, true, 0},
	}

	for specIndex, spec := range specs {
		mesh.AutoSmooth = spec.autoSmooth
		opts := Options{IdTechCompatible: spec.idTech, Smoothed: spec.smoothed, Scale: 1}
		if got := smoothingAngle(mesh, opts); got != spec.exp {
			t.Errorf("[spec %d] expected angle %v; got %v", specIndex, spec.exp, got)
		}
	}
}

func TestFallbackSurfaceIsFlat(t *testing.T) {
	obj := triangleObject("tri")
	obj.Mesh.AutoSmooth = true
	obj.Mesh.ColorLayers = []*scene.ColorLayer{{Name: "Col", Data: make([]types.Vec4, 3)}}

	broken := scene.NewMaterial("broken")
	broken.Specular = float32(math.Inf(1))
	smooth := scene.NewMaterial("smooth")

	specs := []struct {
		src surfaceSource
		exp float32
	}{
		{surfaceSource{name: VertexColorSurfaceName, mesh: obj.Mesh}, 0},
		{surfaceSource{name: broken.Name, material: broken, mesh: obj.Mesh}, 0},
		{surfaceSource{name: smooth.Name, material: smooth, mesh: obj.Mesh}, obj.Mesh.AutoSmoothAngle},
	}

	sb := &surfaceBuilder{opts: DefaultOptions(), clips: newClipRegistry()}
	for specIndex, spec := range specs {
		payload, err := sb.build(spec.src)
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}

		_, subs := materialSubChunks(t, payload)
		sman := filterChunks(subs, "SMAN")
		if len(sman) != 1 {
			t.Fatalf("[spec %d] expected 1 SMAN sub-chunk; got %d", specIndex, len(sman))
		}
		if v := newPayloadReader(t, sman[0].data).f32(); v != spec.exp {
			t.Errorf("[spec %d] expected SMAN %v; got %v", specIndex, spec.exp, v)
		}
	}
}

func TestDefaultSurface(t *testing.T) {
	r := newPayloadReader(t, buildDefaultSurface())
	if name := r.str(); name != DefaultSurfaceName {
		t.Fatalf("expected surface name %q; got %q", DefaultSurfaceName, name)
	}

	subs := walkSubChunks(t, r.rest())
	if ids, exp := chunkIDs(subs), []string{"COLR", "DIFF", "LUMI", "SPEC", "GLOS"}; !reflect.DeepEqual(ids, exp) {
		t.Fatalf("expected sub-chunks %v; got %v", exp, ids)
	}
	if len(subs[0].data) != 14 {
		t.Fatalf("expected COLR length 14; got %d", len(subs[0].data))
	}

	exp := []float32{0.8, 0, 0.4, 0.4}
	for i, sub := range subs[1:] {
		if len(sub.data) != 6 {
			t.Fatalf("expected %s length 6; got %d", sub.id, len(sub.data))
		}
		if v := newPayloadReader(t, sub.data).f32(); v != exp[i] {
			t.Errorf("expected %s to be %v; got %v", sub.id, exp[i], v)
		}
	}
}

func materialSubChunks(t *testing.T, payload []byte) (string, []testChunk) {
	t.Helper()
	r := newPayloadReader(t, payload)
	name := r.str()
	return name, walkSubChunks(t, r.rest())
}

func TestMaterialSurfaceLayout(t *testing.T) {
	mat := scene.NewMaterial("paint")
	mat.Color = types.Vec3{0.1, 0.2, 0.3}
	mat.Hardness = 104

	obj := triangleObject("tri")
	obj.Mesh.Materials = []*scene.Material{mat}
	src := surfaceSource{name: mat.Name, material: mat, mesh: obj.Mesh}

	specs := []struct {
		opts Options
		exp  []string
	}{
		{
			DefaultOptions(),
			[]string{"COLR", "COLR", "DIFF", "LUMI", "SPEC", "GLOS", "SMAN"},
		},
		{
			extendedOptions(),
			[]string{"COLR", "COLR", "DIFF", "LUMI", "SPEC", "REFL", "RBLR", "TRAN", "RIND", "TBLR", "TRNL", "GLOS", "SMAN"},
		},
	}

	for specIndex, spec := range specs {
		sb := &surfaceBuilder{opts: spec.opts, clips: newClipRegistry()}
		payload, err := sb.build(src)
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}

		name, subs := materialSubChunks(t, payload)
		if name != "paint" {
			t.Fatalf("[spec %d] expected surface name paint; got %q", specIndex, name)
		}
		if ids := chunkIDs(subs); !reflect.DeepEqual(ids, spec.exp) {
			t.Fatalf("[spec %d] expected sub-chunks %v; got %v", specIndex, spec.exp, ids)
		}
		if len(subs[0].data) != 0 {
			t.Fatalf("[spec %d] expected an empty leading COLR; got %d bytes", specIndex, len(subs[0].data))
		}

		colr := newPayloadReader(t, subs[1].data)
		if col := (types.Vec3{colr.f32(), colr.f32(), colr.f32()}); col != mat.Color {
			t.Fatalf("[spec %d] expected color %v; got %v", specIndex, mat.Color, col)
		}

		gloss := filterChunks(subs, "GLOS")[0]
		if v := newPayloadReader(t, gloss.data).f32(); v != 0.5 {
			t.Fatalf("[spec %d] expected gloss 0.5; got %v", specIndex, v)
		}
		if sman := filterChunks(subs, "SMAN")[0]; len(sman.data) != 4 {
			t.Fatalf("[spec %d] expected SMAN length 4; got %d", specIndex, len(sman.data))
		}
	}
}

func TestMaterialVertexColorBinding(t *testing.T) {
	mat := scene.NewMaterial("painted")
	mat.VertexColorMap = "Paint"

	obj := triangleObject("tri")
	obj.Mesh.Materials = []*scene.Material{mat}
	sb := &surfaceBuilder{opts: DefaultOptions(), clips: newClipRegistry()}

	payload, err := sb.build(surfaceSource{name: mat.Name, material: mat, mesh: obj.Mesh})
	if err != nil {
		t.Fatal(err)
	}
	_, subs := materialSubChunks(t, payload)
	vcol := filterChunks(subs, "VCOL")
	if len(vcol) != 1 {
		t.Fatalf("expected 1 VCOL sub-chunk; got %d", len(vcol))
	}
	r := newPayloadReader(t, vcol[0].data)
	if intensity := r.f32(); intensity != 1 {
		t.Fatalf("expected intensity 1; got %v", intensity)
	}
	r.u16()
	if typ, name := r.tag(), r.str(); typ != "RGBA" || name != "Paint" {
		t.Fatalf("expected binding to RGBA map Paint; got %q %q", typ, name)
	}
}

func texturedObject(name, image string, blend scene.BlendMode) *scene.Object {
	mat := scene.NewMaterial(name + "_mat")
	mat.Textures = []*scene.TextureSlot{{
		Image: image,
		Blend: blend,
		Maps: []scene.TextureMap{
			{Channel: scene.ChannelSpecular, Factor: 0.5},
			{Channel: scene.ChannelColor, Factor: 1},
		},
	}}

	obj := triangleObject(name)
	obj.Mesh.Materials = []*scene.Material{mat}
	obj.Mesh.UVLayers = []*scene.UVLayer{{
		Name: "UVMap",
		Data: []types.Vec2{{0, 0}, {1, 0}, {0, 1}},
	}}
	return obj
}

type textureBlock struct {
	ordinal uint8
	channel string
	opacity uint16
	factor  float32
	invert  uint16
	clip    uint16
	proj    uint16
	uvName  string
}

func parseTextureBlock(t *testing.T, data []byte) textureBlock {
	t.Helper()

	var blk textureBlock
	subs := walkSubChunks(t, data)
	if ids, exp := chunkIDs(subs), []string{"IMAP", "IMAG", "PROJ", "VMAP"}; !reflect.DeepEqual(ids, exp) {
		t.Fatalf("expected BLOK sub-chunks %v; got %v", exp, ids)
	}

	imap := subs[0].data
	blk.ordinal = imap[0]
	if imap[1] != 0 {
		t.Fatalf("expected ordinal terminator; got %d", imap[1])
	}
	header := walkSubChunks(t, imap[2:])
	if ids, exp := chunkIDs(header), []string{"CHAN", "OPAC", "ENAB", "NEGA", "AXIS"}; !reflect.DeepEqual(ids, exp) {
		t.Fatalf("expected IMAP sub-chunks %v; got %v", exp, ids)
	}
	blk.channel = string(header[0].data)
	opac := newPayloadReader(t, header[1].data)
	blk.opacity = opac.u16()
	blk.factor = opac.f32()
	blk.invert = newPayloadReader(t, header[3].data).u16()

	blk.clip = newPayloadReader(t, subs[1].data).u16()
	blk.proj = newPayloadReader(t, subs[2].data).u16()
	blk.uvName = newPayloadReader(t, subs[3].data).str()
	return blk
}

func TestTextureBlocks(t *testing.T) {
	obj := texturedObject("tex", "textures/wood.png", scene.BlendMultiply)
	obj.Mesh.Materials[0].Textures[0].Invert = true

	chunks := encodeChunks(t, []*scene.Object{obj}, extendedOptions())

	_, subs := materialSubChunks(t, filterChunks(chunks, "SURF")[0].data)
	bloks := filterChunks(subs, "BLOK")
	if len(bloks) != 2 {
		t.Fatalf("expected 2 BLOK sub-chunks; got %d", len(bloks))
	}

	exp := []textureBlock{
		{ordinal: 128, channel: "COLR", opacity: 3, factor: 1, invert: 1, clip: 1, proj: 5, uvName: "UVMap"},
		{ordinal: 128, channel: "SPEC", opacity: 3, factor: 0.5, invert: 1, clip: 1, proj: 5, uvName: "UVMap"},
	}
	for i, blok := range bloks {
		if got := parseTextureBlock(t, blok.data); got != exp[i] {
			t.Errorf("expected block %d to be %+v; got %+v", i, exp[i], got)
		}
	}

	// BLOKs are the last sub-chunks of the surface
	if ids := chunkIDs(subs); ids[len(ids)-3] != "SMAN" {
		t.Fatalf("expected BLOKs to follow SMAN; got %v", ids)
	}

	clips := filterChunks(chunks, "CLIP")
	if len(clips) != 1 {
		t.Fatalf("expected 1 CLIP chunk; got %d", len(clips))
	}

	// No blocks in idTech mode and thus no clips
	chunks = encodeChunks(t, []*scene.Object{texturedObject("tex", "textures/wood.png", scene.BlendMix)}, DefaultOptions())
	if clips := filterChunks(chunks, "CLIP"); len(clips) != 0 {
		t.Fatalf("expected no CLIP chunks in idTech mode; got %d", len(clips))
	}
}

func TestSharedTextureClip(t *testing.T) {
	a := texturedObject("a", `C:\textures\shared.png`, scene.BlendMix)
	b := texturedObject("b", `C:\textures\shared.png`, scene.BlendAdd)
	c := texturedObject("c", "other.png", scene.BlendMix)

	chunks := encodeChunks(t, []*scene.Object{a, b, c}, extendedOptions())

	clips := filterChunks(chunks, "CLIP")
	if len(clips) != 2 {
		t.Fatalf("expected 2 CLIP chunks; got %d", len(clips))
	}

	r := newPayloadReader(t, clips[0].data)
	if id := r.u32(); id != 1 {
		t.Fatalf("expected first clip id 1; got %d", id)
	}
	stil := walkSubChunks(t, r.rest())
	if len(stil) != 1 || stil[0].id != "STIL" {
		t.Fatalf("expected a STIL sub-chunk; got %v", chunkIDs(stil))
	}
	if path := newPayloadReader(t, stil[0].data).str(); path != "C:/textures/shared.png" {
		t.Fatalf("expected normalized path; got %q", path)
	}

	expClips := []uint16{1, 1, 2}
	for surfIndex, surf := range filterChunks(chunks, "SURF") {
		_, subs := materialSubChunks(t, surf.data)
		for _, blok := range filterChunks(subs, "BLOK") {
			if clip := parseTextureBlock(t, blok.data).clip; clip != expClips[surfIndex] {
				t.Errorf("surface %d: expected clip %d; got %d", surfIndex, expClips[surfIndex], clip)
			}
		}
	}

	// CLIPs precede SURFs
	ids := chunkIDs(chunks)
	if ids[len(ids)-4] != "CLIP" || ids[len(ids)-3] != "SURF" {
		t.Fatalf("expected CLIP chunks before SURF chunks; got %v", ids)
	}
}

func TestTooManyTextureSlots(t *testing.T) {
	obj := texturedObject("tex", "wood.png", scene.BlendMix)
	mat := obj.Mesh.Materials[0]
	for len(mat.Textures) <= maxTextureSlots {
		mat.Textures = append(mat.Textures, nil)
	}

	_, err := Encode([]*scene.Object{obj}, extendedOptions())
	if !errors.Is(err, ErrTooManyTextureSlots) {
		t.Fatalf("expected ErrTooManyTextureSlots; got %v", err)
	}
}

func TestNormalizeClipPath(t *testing.T) {
	specs := []struct {
		in, exp string
	}{
		{`C:\a\b.png`, "C:/a/b.png"},
		{`\\server\share\c.png`, `\\server/share/c.png`},
		{"a", "a"},
		{"textures/d.png", "textures/d.png"},
		{`日\a\b.png`, `日\a/b.png`},
		{`日本\e.png`, "日本/e.png"},
	}

	for specIndex, spec := range specs {
		if got := normalizeClipPath(spec.in); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
