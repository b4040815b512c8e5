package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/a1335"
	"github.com/mklimuk/a1335/cmd/a1335/console"
)

var rateCmd = cli.Command{
	Name: "rate",
	Subcommands: []*cli.Command{
		&rateReadCmd,
		&rateSetCmd,
	},
}

var rateReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags:   busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		rate, err := sensor.ReadOutputRate(ctx)
		if err != nil {
			return console.Exit(1, "error reading output rate: %s", console.Red(err))
		}
		console.Printf("%s output rate: %s (averaging over %d samples)\n", console.PictoRepeat, console.White(rate), 1<<rate)
		return nil
	},
}

var rateSetCmd = cli.Command{
	Name:      "set",
	ArgsUsage: "<rate 0-7>",
	Flags:     busFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected a single rate argument (0-7)")
		}
		rate, err := parseRate(c.Args().First())
		if err != nil {
			return console.Exit(1, "invalid rate: %s", console.Red(err))
		}
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		err = sensor.SetOutputRate(ctx, rate)
		if err != nil {
			if errors.Is(err, a1335.ErrWriteNotConfirmed) {
				return console.Exit(1, "rate write not confirmed: %s", console.Red(err))
			}
			return console.Exit(1, "error setting output rate: %s", console.Red(err))
		}
		console.Printf("%s output rate set to %s\n", console.PictoRepeat, console.White(sensor.OutputRate()))
		return nil
	},
}

func parseRate(arg string) (byte, error) {
	if len(arg) != 1 || arg[0] < '0' || arg[0] > '7' {
		return 0, errors.New("rate must be a digit between 0 and 7")
	}
	return arg[0] - '0', nil
}
