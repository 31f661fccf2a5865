package reader

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/achilleasa/lwoexport/asset"
	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/types"
)

// Specular exponent to hardness conversion factor.
const nsPerHardness = 1.9607843137254901

// Texture map keys and the material channel they modulate.
var textureMapChannels = map[string]scene.Channel{
	"map_Kd":      scene.ChannelColor,
	"map_diffuse": scene.ChannelDiffuse,
	"map_Ks":      scene.ChannelSpecular,
	"map_Ke":      scene.ChannelLuminosity,
	"map_Ns":      scene.ChannelGloss,
	"map_d":       scene.ChannelTransparency,
	"map_refl":    scene.ChannelReflection,
	"map_trnl":    scene.ChannelTranslucency,
}

type wavefrontMaterial struct {
	Name string

	material *scene.Material

	// Slot modified by map_uv, map_blend, map_invert and map_factor.
	lastSlot *scene.TextureSlot
	lastMap  int

	// True if this material is used by at least one primitive.
	Used bool
}

// Get the texture slot for an image, allocating a new slot on first use.
func (wf *wavefrontMaterial) textureSlot(image, source string) *scene.TextureSlot {
	for _, slot := range wf.material.Textures {
		if slot.Image == image {
			return slot
		}
	}

	slot := &scene.TextureSlot{Image: image, Source: source, Maps: make([]scene.TextureMap, 0)}
	wf.material.Textures = append(wf.material.Textures, slot)
	return slot
}

// Bind an image to a material channel.
func (wf *wavefrontMaterial) mapTexture(image, source string, ch scene.Channel) {
	slot := wf.textureSlot(image, source)
	for index, m := range slot.Maps {
		if m.Channel == ch {
			wf.lastSlot, wf.lastMap = slot, index
			return
		}
	}

	slot.Maps = append(slot.Maps, scene.TextureMap{Channel: ch, Factor: 1})
	wf.lastSlot, wf.lastMap = slot, len(slot.Maps)-1
}

// Copy the shading parameters of another material.
func (wf *wavefrontMaterial) include(other *wavefrontMaterial) {
	name := wf.material.Name
	*wf.material = *other.material
	wf.material.Name = name

	wf.material.Textures = make([]*scene.TextureSlot, len(other.material.Textures))
	for index, slot := range other.material.Textures {
		slotCopy := *slot
		slotCopy.Maps = append([]scene.TextureMap(nil), slot.Maps...)
		wf.material.Textures[index] = &slotCopy
	}
	wf.lastSlot = nil
}

// Convert a wavefront specular exponent to a hardness value in [1, 511].
func hardnessFromExponent(ns float32) float32 {
	hardness := ns/nsPerHardness + 1
	switch {
	case hardness < 1:
		return 1
	case hardness > 511:
		return 511
	}
	return hardness
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			// Allocate new material and add it to library
			curMaterial = &wavefrontMaterial{
				Name:     matName,
				material: scene.NewMaterial(matName),
			}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			mat := curMaterial.material
			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				curMaterial.include(r.materials[baseMaterialIndex])
			case "Kd":
				mat.Color, err = parseVec3(lineTokens)
			case "Ks", "Ke", "Tf":
				var v types.Vec3
				if v, err = parseVec3(lineTokens); err != nil {
					break
				}
				switch lineTokens[0] {
				case "Ks":
					mat.Specular = v.MaxComponent()
				case "Ke":
					mat.Luminosity = v.MaxComponent()
				case "Tf":
					mat.Translucency = 1 - (v[0]+v[1]+v[2])/3
				}
			case "Ns":
				var ns float32
				if ns, err = parseFloat32(lineTokens); err == nil {
					mat.Hardness = hardnessFromExponent(ns)
				}
			case "Ni":
				mat.IOR, err = parseFloat32(lineTokens)
			case "d":
				mat.Alpha, err = parseFloat32(lineTokens)
			case "Tr":
				var tr float32
				if tr, err = parseFloat32(lineTokens); err == nil {
					mat.Alpha = 1 - tr
				}
			case "refl", "mirror":
				if mat.Mirror.Reflect, err = parseFloat32(lineTokens); err == nil {
					mat.Mirror.Enabled = true
				}
			case "mirror_gloss":
				mat.Mirror.Gloss, err = parseFloat32(lineTokens)
			case "trans_gloss":
				mat.TransparencyGloss, err = parseFloat32(lineTokens)
			case "diffuse":
				mat.Diffuse, err = parseFloat32(lineTokens)
			case "specular":
				mat.Specular, err = parseFloat32(lineTokens)
			case "luminosity":
				mat.Luminosity, err = parseFloat32(lineTokens)
			case "translucency":
				mat.Translucency, err = parseFloat32(lineTokens)
			case "vcol":
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}
				mat.VertexColorMap = lineTokens[1]
			case "map_Kd", "map_diffuse", "map_Ks", "map_Ke", "map_Ns", "map_d", "map_refl", "map_trnl":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				// Map options may precede the image path
				image := lineTokens[len(lineTokens)-1]
				source, err := asset.Resolve(image, res)
				if err != nil {
					return r.emitError(res.Path(), lineNum, "%s", err.Error())
				}
				curMaterial.mapTexture(image, source, textureMapChannels[lineTokens[0]])
			case "map_uv", "map_blend", "map_invert", "map_factor":
				if curMaterial.lastSlot == nil {
					return r.emitError(res.Path(), lineNum, `got "%s" without a texture map`, lineTokens[0])
				}
				err = parseTextureOption(curMaterial, lineTokens)
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	return nil
}

// Apply a texture option to the last mapped texture of a material.
func parseTextureOption(wf *wavefrontMaterial, lineTokens []string) error {
	slot := wf.lastSlot
	switch lineTokens[0] {
	case "map_invert":
		slot.Invert = len(lineTokens) < 2 || (lineTokens[1] != "off" && lineTokens[1] != "0")
		return nil
	case "map_factor":
		factor, err := parseFloat32(lineTokens)
		if err != nil {
			return err
		}
		slot.Maps[wf.lastMap].Factor = factor
		return nil
	}

	if len(lineTokens) != 2 {
		return fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	switch lineTokens[0] {
	case "map_uv":
		slot.UVLayer = lineTokens[1]
	case "map_blend":
		blend, valid := scene.ParseBlendMode(lineTokens[1])
		if !valid {
			return fmt.Errorf(`unknown blend mode "%s"`, lineTokens[1])
		}
		slot.Blend = blend
	}
	return nil
}
