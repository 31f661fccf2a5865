package lwo

import (
	"fmt"
	"math"

	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/types"
)

const (
	// Projection mode for uv mapped image layers.
	projectionUV = 5

	// Texture slot ordinals are only defined for this many slots.
	maxTextureSlots = 128
)

// Texture channel ids.
var channelIDs = map[scene.Channel]string{
	scene.ChannelColor:        "COLR",
	scene.ChannelDiffuse:      "DIFF",
	scene.ChannelLuminosity:   "LUMI",
	scene.ChannelSpecular:     "SPEC",
	scene.ChannelGloss:        "GLOS",
	scene.ChannelReflection:   "REFL",
	scene.ChannelTransparency: "TRAN",
	scene.ChannelTranslucency: "TRNL",
}

// Texture layer opacity types.
var blendOpacityTypes = map[scene.BlendMode]uint16{
	scene.BlendMix:        0,
	scene.BlendSubtract:   1,
	scene.BlendDifference: 2,
	scene.BlendMultiply:   3,
	scene.BlendDivide:     4,
	scene.BlendAdd:        7,
}

// Surface shading coefficients.
type shading struct {
	color          types.Vec3
	diffuse        float32
	luminosity     float32
	specular       float32
	gloss          float32
	reflection     float32
	reflectionBlur float32
	transparency   float32
	ior            float32
	refractionBlur float32
	translucency   float32

	// SMAN angle in radians.
	smoothing float32
}

// Coefficients used when a material cannot be resolved.
func fallbackShading() shading {
	return shading{
		color:     types.Vec3{1, 1, 1},
		diffuse:   1,
		specular:  0.2,
		ior:       1,
		smoothing: 0,
	}
}

// Convert a specular hardness value to glossiness.
func glossFromHardness(hardness float32) float32 {
	if hardness <= 4 {
		return 0
	}
	return float32(math.Sqrt(float64(hardness-4) / 400))
}

// Lookup the shading coefficients for a material. If the material is
// missing or carries non-finite values the fallback coefficients are
// returned and the second value is false.
func lookupShading(mat *scene.Material) (shading, bool) {
	if mat == nil {
		return fallbackShading(), false
	}

	sh := shading{
		color:          mat.Color,
		diffuse:        mat.Diffuse,
		luminosity:     mat.Luminosity,
		specular:       mat.Specular,
		gloss:          glossFromHardness(mat.Hardness),
		reflectionBlur: 1 - mat.Mirror.Gloss,
		transparency:   1 - mat.Alpha,
		ior:            mat.IOR,
		refractionBlur: 1 - mat.TransparencyGloss,
		translucency:   mat.Translucency,
	}
	if mat.Mirror.Enabled {
		sh.reflection = mat.Mirror.Reflect
	}

	for _, v := range []float32{
		sh.color[0], sh.color[1], sh.color[2], sh.diffuse, sh.luminosity,
		sh.specular, sh.gloss, sh.reflection, sh.reflectionBlur,
		sh.transparency, sh.ior, sh.refractionBlur, sh.translucency,
	} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fallbackShading(), false
		}
	}

	return sh, true
}

// Get the smoothing angle written to SMAN.
func smoothingAngle(mesh *scene.Mesh, opts Options) float32 {
	switch {
	case opts.IdTechCompatible:
		if mesh.AutoSmooth {
			return mesh.AutoSmoothAngle
		}
		return 0
	case opts.Smoothed:
		return mesh.AutoSmoothAngle
	}
	return 0
}

// Write a scalar sub-chunk followed by a zero envelope.
func writeScalar(buf *chunkBuffer, id string, v float32) {
	var sub chunkBuffer
	sub.F32(v)
	sub.U16(0)
	buf.SubChunk(id, sub.Bytes())
}

// Write a color sub-chunk followed by a zero envelope.
func writeColor(buf *chunkBuffer, col types.Vec3) {
	var sub chunkBuffer
	sub.Vec3(col)
	sub.U16(0)
	buf.SubChunk("COLR", sub.Bytes())
}

// The surface builder emits SURF payloads and allocates clips for the
// textures it references.
type surfaceBuilder struct {
	opts  Options
	clips *clipRegistry
}

// Build the SURF payload for a tag table entry.
func (sb *surfaceBuilder) build(src surfaceSource) ([]byte, error) {
	if src.material == nil && src.name == DefaultSurfaceName {
		return buildDefaultSurface(), nil
	}

	sh, resolved := lookupShading(src.material)
	if resolved {
		sh.smoothing = smoothingAngle(src.mesh, sb.opts)
	}

	var buf chunkBuffer
	buf.Str(src.name)

	// An empty color sub-chunk precedes the actual color; some readers
	// expect it.
	buf.SubChunk("COLR", nil)
	writeColor(&buf, sh.color)
	writeScalar(&buf, "DIFF", sh.diffuse)
	writeScalar(&buf, "LUMI", sh.luminosity)
	writeScalar(&buf, "SPEC", sh.specular)

	if !sb.opts.IdTechCompatible {
		writeScalar(&buf, "REFL", sh.reflection)
		writeScalar(&buf, "RBLR", sh.reflectionBlur)
		writeScalar(&buf, "TRAN", sh.transparency)
		writeScalar(&buf, "RIND", sh.ior)
		writeScalar(&buf, "TBLR", sh.refractionBlur)
		writeScalar(&buf, "TRNL", sh.translucency)
	}

	writeScalar(&buf, "GLOS", sh.gloss)

	if vcolName := vertexColorBinding(src); vcolName != "" {
		var sub chunkBuffer
		sub.F32(1.0) // intensity
		sub.U16(0)   // envelope
		sub.Tag(vmapRGBA)
		sub.Str(vcolName)
		buf.SubChunk("VCOL", sub.Bytes())
	}

	var sman chunkBuffer
	sman.F32(sh.smoothing)
	buf.SubChunk("SMAN", sman.Bytes())

	if !sb.opts.IdTechCompatible && src.material != nil {
		if err := sb.writeTextureBlocks(&buf, src); err != nil {
			return nil, err
		}
	}

	return buf.Payload()
}

// Get the vertex color layer bound to a surface.
func vertexColorBinding(src surfaceSource) string {
	if src.material != nil {
		return src.material.VertexColorMap
	}
	if src.name == VertexColorSurfaceName && len(src.mesh.ColorLayers) != 0 {
		return src.mesh.ColorLayers[0].Name
	}
	return ""
}

// Emit a BLOK for every channel mapped by the material image textures.
func (sb *surfaceBuilder) writeTextureBlocks(buf *chunkBuffer, src surfaceSource) error {
	slots := src.material.Textures
	for slotIndex, slot := range slots {
		if slot == nil || slot.Image == "" {
			continue
		}

		ordinal, err := textureOrdinal(len(slots), slotIndex)
		if err != nil {
			return fmt.Errorf("surface %q: %w", src.name, err)
		}

		clipID, err := sb.clips.resolve(slot.Image, slot.Source)
		if err != nil {
			return err
		}

		uvName := slot.UVLayer
		if uvName == "" && len(src.mesh.UVLayers) != 0 {
			uvName = src.mesh.UVLayers[0].Name
		}

		for _, ch := range scene.Channels {
			factor, mapped := slot.Map(ch)
			if !mapped {
				continue
			}
			buf.SubChunk("BLOK", buildTextureBlock(slot, ch, factor, ordinal, clipID, uvName))
		}
	}

	return buf.Err()
}

// Build an image map BLOK payload.
func buildTextureBlock(slot *scene.TextureSlot, ch scene.Channel, factor float32, ordinal uint8, clipID int, uvName string) []byte {
	var imap chunkBuffer
	imap.U8(ordinal)
	imap.U8(0)
	imap.SubChunk("CHAN", []byte(channelIDs[ch]))

	var opac chunkBuffer
	opac.U16(blendOpacityTypes[slot.Blend])
	opac.F32(factor)
	opac.U16(0)
	imap.SubChunk("OPAC", opac.Bytes())

	imap.SubChunk("ENAB", u16Bytes(1))
	if slot.Invert {
		imap.SubChunk("NEGA", u16Bytes(1))
	} else {
		imap.SubChunk("NEGA", u16Bytes(0))
	}
	imap.SubChunk("AXIS", u16Bytes(1))

	var blok chunkBuffer
	blok.SubChunk("IMAP", imap.Bytes())
	blok.SubChunk("IMAG", u16Bytes(uint16(clipID)))
	blok.SubChunk("PROJ", u16Bytes(projectionUV))
	blok.SubChunk("VMAP", EncodeString(uvName))
	return blok.Bytes()
}

// Calculate the ordinal byte for a texture slot. The ordinal spacing is
// halved as the number of slots grows so that all ordinals fit a byte.
func textureOrdinal(slotCount, slotIndex int) (uint8, error) {
	if slotCount > maxTextureSlots {
		return 0, ErrTooManyTextureSlots
	}

	step := 16
	for i := 8; i < 128 && i < slotCount; i *= 2 {
		step /= 2
	}
	return uint8(128 + slotIndex*step), nil
}

// Build the SURF payload used for meshes without materials.
func buildDefaultSurface() []byte {
	var buf chunkBuffer
	buf.Str(DefaultSurfaceName)
	writeColor(&buf, types.Vec3{0.9, 0.9, 0.9})
	writeScalar(&buf, "DIFF", 0.8)
	writeScalar(&buf, "LUMI", 0)
	writeScalar(&buf, "SPEC", 0.4)
	writeScalar(&buf, "GLOS", float32(math.Round(50/(255/2.0)*10)/10))
	return buf.Bytes()
}

func u16Bytes(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}
