package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "druidcraft",
		Usage: "simulates druidcraft crop growth over Anvil worlds and generated farms",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML settings file"},
			&cli.StringFlag{Name: "registry", Usage: "block table replacing the built-in one"},
		},
		Commands: []*cli.Command{
			{
				Name:      "simulate",
				Usage:     "run crop ticks and write a snapshot",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "world", Usage: "Anvil region directory to start from"},
					&cli.StringFlag{Name: "snapshot", Usage: "snapshot to resume from"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "druidcraft.snap", Usage: "snapshot to write"},
					&cli.IntFlag{Name: "ticks", Aliases: []string{"n"}, Usage: "ticks to run (overrides config)"},
					&cli.Int64Flag{Name: "seed", Usage: "random seed (overrides config)"},
					&cli.BoolFlag{Name: "sweep", Usage: "tick every crop each step"},
					&cli.StringFlag{Name: "history", Usage: "SQLite file to journal the run to (overrides config)"},
				},
				Action: simulate,
			},
			{
				Name:      "bonemeal",
				Usage:     "apply an accelerant to one crop in a snapshot",
				ArgsUsage: "SNAPSHOT X Y Z",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "times", Value: 1, Usage: "number of uses"},
					&cli.StringFlag{Name: "item", Value: "minecraft:bone_meal", Usage: "accelerant item"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "snapshot to write (defaults to SNAPSHOT)"},
				},
				Action: bonemeal,
			},
			{
				Name:      "inspect",
				Usage:     "summarise crops and drops in a snapshot",
				ArgsUsage: "SNAPSHOT",
				Action:    inspect,
			},
			{
				Name:   "blocks",
				Usage:  "list the block table",
				Action: blocks,
			},
			{
				Name:      "history",
				Usage:     "list journaled runs, or summarise one",
				ArgsUsage: "DB [RUN]",
				Action:    runHistory,
			},
		},
	}
}
