package main

import (
	"os"

	"github.com/far4599/ytgrab/internal/app"
	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/pkg/context"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

var flagConfigFile string

var rootCmd = &cobra.Command{
	Use:           "ytgrab",
	Short:         "Download videos with sound through a browser or a telegram bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serveRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front end and the telegram bot",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigFile, "config", "f", "", "path to configuration yaml file")
	rootCmd.AddCommand(serveCmd, probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger.Errorw("app exited unexpectedly", "error", err)
		os.Exit(1)
	}
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.NewSignalledContext()
	defer cancel()

	conf, err := config.NewConfig(ctx, flagConfigFile)
	if err != nil {
		return err
	}

	return app.NewApp(conf).Run(ctx)
}
