package scene

import "github.com/achilleasa/lwoexport/types"

// Texture channels that an image texture can modulate.
type Channel uint8

const (
	ChannelColor Channel = iota
	ChannelDiffuse
	ChannelLuminosity
	ChannelSpecular
	ChannelGloss
	ChannelReflection
	ChannelTransparency
	ChannelTranslucency
)

// Channels lists every texture channel in export order.
var Channels = []Channel{
	ChannelColor,
	ChannelDiffuse,
	ChannelLuminosity,
	ChannelSpecular,
	ChannelGloss,
	ChannelReflection,
	ChannelTransparency,
	ChannelTranslucency,
}

func (c Channel) String() string {
	switch c {
	case ChannelColor:
		return "color"
	case ChannelDiffuse:
		return "diffuse"
	case ChannelLuminosity:
		return "luminosity"
	case ChannelSpecular:
		return "specular"
	case ChannelGloss:
		return "gloss"
	case ChannelReflection:
		return "reflection"
	case ChannelTransparency:
		return "transparency"
	case ChannelTranslucency:
		return "translucency"
	}
	return "unknown"
}

// The blend mode used when layering a texture over a material channel.
type BlendMode uint8

const (
	BlendMix BlendMode = iota
	BlendSubtract
	BlendDifference
	BlendMultiply
	BlendDivide
	BlendAdd
)

// Parse a blend mode name. The second return value is false for unknown names.
func ParseBlendMode(name string) (BlendMode, bool) {
	switch name {
	case "mix", "normal":
		return BlendMix, true
	case "subtract":
		return BlendSubtract, true
	case "difference":
		return BlendDifference, true
	case "multiply":
		return BlendMultiply, true
	case "divide":
		return BlendDivide, true
	case "add":
		return BlendAdd, true
	}
	return BlendMix, false
}

// A texture map binds a slot image to a material channel.
type TextureMap struct {
	Channel Channel
	Factor  float32
}

// An image texture slot.
type TextureSlot struct {
	// Image path as referenced by the scene.
	Image string

	// Resolved image location (local path or URL).
	Source string

	// Name of the uv layer used for mapping; empty selects the first layer
	// of the mesh.
	UVLayer string

	Blend  BlendMode
	Invert bool

	Maps []TextureMap
}

// Lookup the factor for a mapped channel.
func (ts *TextureSlot) Map(ch Channel) (float32, bool) {
	for _, m := range ts.Maps {
		if m.Channel == ch {
			return m.Factor, true
		}
	}
	return 0, false
}

// Raytraced mirror settings.
type Mirror struct {
	Enabled bool
	Reflect float32
	Gloss   float32
}

// Material shading parameters.
type Material struct {
	Name string

	Color        types.Vec3
	Diffuse      float32
	Luminosity   float32
	Specular     float32
	Hardness     float32
	Mirror       Mirror
	Alpha        float32
	IOR          float32
	Translucency float32

	// Gloss factor for raytraced transparency.
	TransparencyGloss float32

	// Name of a vertex color layer bound to this material.
	VertexColorMap string

	Textures []*TextureSlot
}

// Create a material with neutral defaults.
func NewMaterial(name string) *Material {
	return &Material{
		Name:              name,
		Color:             types.Vec3{0.8, 0.8, 0.8},
		Diffuse:           0.8,
		Specular:          0.5,
		Hardness:          50,
		Mirror:            Mirror{Gloss: 1},
		Alpha:             1,
		IOR:               1,
		TransparencyGloss: 1,
	}
}
