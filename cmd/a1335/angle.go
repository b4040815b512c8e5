package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/a1335"
	"github.com/mklimuk/a1335/cmd/a1335/console"
)

var angleCmd = cli.Command{
	Name:    "angle",
	Aliases: []string{"ang"},
	Subcommands: []*cli.Command{
		&angleReadCmd,
		&angleWatchCmd,
	},
}

var angleReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags:   busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		angle, err := sensor.ReadAngle(ctx)
		if err != nil {
			if errors.Is(err, a1335.ErrParity) {
				return console.Exit(1, "corrupted angle read: %s", console.Red(err))
			}
			return console.Exit(1, "error reading angle: %s", console.Red(err))
		}
		console.Printf("%s %s°\n", console.PictoCompass, console.White(angle))
		return nil
	},
}

var angleWatchCmd = cli.Command{
	Name: "watch",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Value: 200 * time.Millisecond,
		},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		tick := time.NewTicker(c.Duration("interval"))
		defer tick.Stop()
		for {
			select {
			case <-stop:
				console.Printf("%s stopped\n", console.PictoStop)
				return nil
			case <-tick.C:
				angle, err := sensor.ReadAngle(ctx)
				if err != nil {
					if errors.Is(err, a1335.ErrParity) {
						console.Warnf("corrupted angle read: %s", console.Red(err))
						continue
					}
					return console.Exit(1, "error reading angle: %s", console.Red(err))
				}
				console.Printf("%s %s°\n", console.PictoCompass, console.White(angle))
			}
		}
	},
}
