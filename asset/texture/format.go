package texture

import "image/color"

// The pixel layout reported by an image header.
type Format uint32

const (
	Luminance8 Format = iota
	Luminance16
	Rgba8
	Rgba16
	Paletted
)

func (f Format) String() string {
	switch f {
	case Luminance8:
		return "L8"
	case Luminance16:
		return "L16"
	case Rgba8:
		return "RGBA8"
	case Rgba16:
		return "RGBA16"
	case Paletted:
		return "paletted"
	}
	return "unknown"
}

// Map a decoder color model to a pixel layout.
func formatFromModel(model color.Model) Format {
	switch model {
	case color.GrayModel:
		return Luminance8
	case color.Gray16Model:
		return Luminance16
	case color.RGBA64Model, color.NRGBA64Model:
		return Rgba16
	}
	if _, isPalette := model.(color.Palette); isPalette {
		return Paletted
	}
	return Rgba8
}
