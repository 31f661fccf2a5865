package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/achilleasa/lwoexport/asset/lwo"
	"github.com/achilleasa/lwoexport/asset/scene/reader"
	"github.com/achilleasa/lwoexport/asset/scene/writer"
	"github.com/urfave/cli"
)

// Get the output file for a scene. Without an explicit --out the scene file
// extension is replaced.
func outputFile(ctx *cli.Context, sceneFile string) string {
	if out := ctx.String("out"); out != "" {
		return out
	}
	return strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile))
}

func readSceneArg(ctx *cli.Context) (string, lwo.Options, error) {
	if ctx.NArg() != 1 {
		return "", lwo.Options{}, errors.New("missing scene file argument")
	}

	opts, err := loadOptions(ctx)
	if err != nil {
		return "", opts, err
	}
	return ctx.Args().First(), opts, nil
}

// Export scene objects to LWO2 files.
func ExportScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sceneFile, opts, err := readSceneArg(ctx)
	if err != nil {
		return err
	}

	sc, err := reader.ReadScene(sceneFile)
	if err != nil {
		return err
	}

	written, err := writer.WriteScene(sc, outputFile(ctx, sceneFile), opts, ctx.Bool("probe-textures"), ctx.StringSlice("select")...)
	logger.Noticef("exported %d file(s)", len(written))
	return err
}
