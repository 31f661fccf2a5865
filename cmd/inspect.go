package cmd

import (
	"github.com/achilleasa/lwoexport/asset/lwo"
	"github.com/achilleasa/lwoexport/asset/scene/reader"
	"github.com/achilleasa/lwoexport/asset/scene/writer"
	"github.com/urfave/cli"
)

// Display the files and chunks that an export would generate without
// writing anything.
func InspectScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sceneFile, opts, err := readSceneArg(ctx)
	if err != nil {
		return err
	}

	sc, err := reader.ReadScene(sceneFile)
	if err != nil {
		return err
	}

	files, err := writer.Plan(sc, outputFile(ctx, sceneFile), opts, ctx.StringSlice("select")...)
	if err != nil {
		return err
	}

	for _, f := range files {
		doc, err := lwo.Encode(f.Objects, opts)
		if err != nil {
			return err
		}
		logger.Noticef("%s (%d object(s)):\n%s", f.Path, len(f.Objects), doc.Stats())
	}
	return nil
}
