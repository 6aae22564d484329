package main

import (
	"fmt"

	"github.com/far4599/ytgrab/internal/app"
	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/pkg/context"
	"github.com/far4599/ytgrab/internal/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "List the formats with sound available for a video",
	Args:  cobra.ExactArgs(1),
	RunE:  probeRun,
}

func probeRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.NewSignalledContext()
	defer cancel()

	conf, err := config.NewConfig(ctx, flagConfigFile)
	if err != nil {
		return err
	}

	meta, candidates, err := app.NewApp(conf).Probe(ctx, args[0])
	if err != nil {
		return errors.New(service.UserMessage(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, meta.Title)
	if len(candidates) == 0 {
		fmt.Fprintln(out, "no formats with audio available")
		return nil
	}

	for _, row := range service.Grid(candidates, service.GridColumns) {
		for _, c := range row {
			fmt.Fprintf(out, "%-10s %-8s %s\n", c.Key, c.Format.ID, c.Label)
		}
	}

	return nil
}
