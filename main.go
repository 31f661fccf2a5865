package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lwoexport/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lwoexport"
	app.Usage = "export wavefront scenes to LightWave LWO2 objects"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "export",
			Usage: "export scene objects to LWO2 files",
			Description: `
Parse a scene definition from a wavefront obj file and write its mesh objects
to an LWO2 file. Options are loaded from an optional TOML config file; flags
override values from the config file.

In batch mode each object is written to its own file named after the object.`,
			ArgsUsage: "scene_file.obj",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "probe-textures",
					Usage: "read the header of every referenced image and log its dimensions",
				},
			}, cmd.ExportFlags...),
			Action: cmd.ExportScene,
		},
		{
			Name:        "inspect",
			Usage:       "display the files and chunks an export would generate",
			Description: `Encode the scene in memory and display a chunk summary for each output file.`,
			ArgsUsage:   "scene_file.obj",
			Flags:       cmd.ExportFlags,
			Action:      cmd.InspectScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
