package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/a1335/cmd/a1335/console"
)

var fieldCmd = cli.Command{
	Name:  "field",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		tesla, err := sensor.ReadField(ctx)
		if err != nil {
			return console.Exit(1, "error getting field read: %s", console.Red(err))
		}
		console.Printf("%s %sT (%.1fmT)\n", console.PictoMagnet, console.White(tesla), tesla*1000)
		return nil
	},
}
