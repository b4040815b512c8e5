package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/a1335/cmd/a1335/console"
)

var resetCmd = cli.Command{
	Name: "reset",
	Subcommands: []*cli.Command{
		&resetSoftCmd,
		&resetHardCmd,
		&resetClearCmd,
	},
}

var resetSoftCmd = cli.Command{
	Name:  "soft",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		answer, err := console.YesOrNo("restart the sensor processor?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if answer != "y" {
			return nil
		}
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		err = sensor.SoftReset(ctx)
		if err != nil {
			return console.Exit(1, "error resetting sensor: %s", console.Red(err))
		}
		console.Printf("soft reset issued\n")
		return nil
	},
}

var resetHardCmd = cli.Command{
	Name:  "hard",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		answer, err := console.YesOrNo("power cycle the sensor?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if answer != "y" {
			return nil
		}
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		err = sensor.HardReset(ctx)
		if err != nil {
			return console.Exit(1, "error resetting sensor: %s", console.Red(err))
		}
		console.Printf("hard reset issued\n")
		return nil
	},
}

var resetClearCmd = cli.Command{
	Name:  "clear",
	Usage: "clear latched status and error flags",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		err = sensor.ClearStatus(ctx)
		if err != nil {
			return console.Exit(1, "error clearing status flags: %s", console.Red(err))
		}
		err = sensor.ClearErrors(ctx)
		if err != nil {
			return console.Exit(1, "error clearing error flags: %s", console.Red(err))
		}
		err = sensor.ClearExtendedErrors(ctx)
		if err != nil {
			return console.Exit(1, "error clearing extended error flags: %s", console.Red(err))
		}
		console.Printf("flags cleared\n")
		return nil
	},
}
