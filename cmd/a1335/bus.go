package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/a1335"
	"github.com/mklimuk/a1335/adapter"
	"github.com/mklimuk/a1335/cmd/a1335/console"
	"github.com/mklimuk/a1335/i2c"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   "mcp2221",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Value:   "/dev/i2c-1",
	},
	&cli.IntFlag{
		Name:  "address",
		Value: int(a1335.DefaultAddress),
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

// openBus builds the transport selected by the adapter flag. The returned
// cleanup function is always safe to call.
func openBus(c *cli.Context) (a1335.Bus, func(), error) {
	switch c.String("adapter") {
	case "mcp2221":
		ad := adapter.NewMCP2221()
		if err := ad.Init(); err != nil {
			return nil, func() {}, err
		}
		return ad, func() {}, nil
	case "generic", "nanopi":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, func() {}, err
		}
		_ = bus.SetSpeed(100 * physic.KiloHertz)
		return bus, func() {
			err := bus.Close()
			if err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}, nil
	}
	return nil, func() {}, cli.Exit("unknown adapter", 1)
}

// openSensor opens the configured bus and runs the wakeup sequence
// against the configured address.
func openSensor(c *cli.Context) (context.Context, *a1335.A1335, func(), error) {
	ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
	bus, cleanup, err := openBus(c)
	if err != nil {
		return ctx, nil, cleanup, console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	sensor := a1335.New(bus)
	err = sensor.Start(ctx, byte(c.Int("address")))
	if err != nil {
		cleanup()
		return ctx, nil, func() {}, console.Exit(1, "sensor startup error: %s", console.Red(err))
	}
	return ctx, sensor, cleanup, nil
}
