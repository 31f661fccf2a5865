package texture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/achilleasa/lwoexport/asset"
	"github.com/achilleasa/lwoexport/log"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var logger = log.New("texture probe")

// Image header information.
type Info struct {
	// Location of the probed image.
	Path string

	// Registered decoder name (png, jpeg, tga...).
	Codec string

	Format Format

	Width  uint32
	Height uint32
}

// Decode the image header from a Resource. Only the header is read; pixel
// data is never decoded.
func Probe(res *asset.Resource) (*Info, error) {
	cfg, codec, err := image.DecodeConfig(res)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode header of %s: %w", res.Path(), err)
	}

	return &Info{
		Path:   res.Path(),
		Codec:  codec,
		Format: formatFromModel(cfg.ColorModel),
		Width:  uint32(cfg.Width),
		Height: uint32(cfg.Height),
	}, nil
}

// Open and probe an image path or URL.
func ProbeFile(pathToImage string) (*Info, error) {
	res, err := asset.NewResource(pathToImage, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Probe(res)
}

// Probe a list of image locations. Images that cannot be opened or decoded
// are logged as warnings and get a nil entry in the returned list.
func ProbeAll(locations []string) []*Info {
	out := make([]*Info, len(locations))
	for index, loc := range locations {
		info, err := ProbeFile(loc)
		if err != nil {
			logger.Warningf("%v", err)
			continue
		}

		logger.Debugf("%s: %s %dx%d (%s)", info.Path, info.Codec, info.Width, info.Height, info.Format)
		out[index] = info
	}
	return out
}
