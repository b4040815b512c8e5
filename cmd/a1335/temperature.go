package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/a1335/cmd/a1335/console"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Flags:   busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		kelvin, err := sensor.ReadTemp(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.Printf("%s %sK (%.2f°C)\n", console.PictoThermometer, console.White(kelvin), kelvin-273.15)
		return nil
	},
}
