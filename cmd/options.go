package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/achilleasa/lwoexport/asset/lwo"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli"
)

// Flags shared by the export and inspect commands.
var ExportFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load export options from a TOML file",
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "output file; defaults to the scene file name with a .lwo extension",
	},
	cli.BoolTFlag{
		Name:  "idtech",
		Usage: "only emit chunks supported by idTech engines (use --idtech=false to disable)",
	},
	cli.BoolFlag{
		Name:  "subpatch",
		Usage: "export polygons as subdivision patches",
	},
	cli.Float64Flag{
		Name:  "scale",
		Value: 1.0,
		Usage: "uniform export scale in the range [0.01, 1000]",
	},
	cli.BoolFlag{
		Name:  "smooth",
		Usage: "export surfaces as smoothed",
	},
	cli.BoolFlag{
		Name:  "batch",
		Usage: "write a separate file for each object",
	},
	cli.StringSliceFlag{
		Name:  "select, s",
		Usage: "only export objects with this name",
	},
}

// Decode TOML encoded options on top of opts. Unknown keys are rejected.
func decodeOptions(r io.Reader, opts *lwo.Options) error {
	return toml.NewDecoder(r).DisallowUnknownFields().Decode(opts)
}

// Load export options. Values from the config file override the defaults
// and explicitly set flags override the config file.
func loadOptions(ctx *cli.Context) (lwo.Options, error) {
	opts := lwo.DefaultOptions()

	if configFile := ctx.String("config"); configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return opts, err
		}
		defer f.Close()

		if err = decodeOptions(f, &opts); err != nil {
			return opts, fmt.Errorf("could not parse config file %q: %w", configFile, err)
		}
		logger.Infof("loaded export options from %q", configFile)
	}

	if ctx.IsSet("idtech") {
		opts.IdTechCompatible = ctx.BoolT("idtech")
	}
	if ctx.IsSet("subpatch") {
		opts.Subpatch = ctx.Bool("subpatch")
	}
	if ctx.IsSet("scale") {
		opts.Scale = float32(ctx.Float64("scale"))
	}
	if ctx.IsSet("smooth") {
		opts.Smoothed = ctx.Bool("smooth")
	}
	if ctx.IsSet("batch") {
		opts.Batch = ctx.Bool("batch")
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	logger.Debugf("export options: %+v", opts)
	return opts, nil
}
