package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/unitcommit/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Solve on the configured schedule and whenever the problem file changes",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)
	return svc.Run(ctx)
}
