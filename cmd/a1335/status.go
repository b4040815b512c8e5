package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/a1335"
	"github.com/mklimuk/a1335/cmd/a1335/console"
)

func hexWord(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}

var statusCmd = cli.Command{
	Name:  "status",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx, sensor, cleanup, err := openSensor(c)
		if err != nil {
			return err
		}
		defer cleanup()
		status, err := sensor.ReadStatus(ctx)
		if err != nil {
			return console.Exit(1, "error reading status: %s", console.Red(err))
		}
		errReg, xerrReg, err := sensor.ReadErrors(ctx)
		if err != nil {
			return console.Exit(1, "error reading error registers: %s", console.Red(err))
		}
		report := struct {
			Status         a1335.Status `yaml:"status"`
			Errors         string       `yaml:"errors"`
			ExtendedErrors string       `yaml:"extended_errors"`
		}{
			Status:         status,
			Errors:         hexWord(errReg),
			ExtendedErrors: hexWord(xerrReg),
		}
		enc := yaml.NewEncoder(os.Stdout)
		err = enc.Encode(report)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}
