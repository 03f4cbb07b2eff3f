package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/unitcommit/app"
	"github.com/kilianp07/unitcommit/core/commitment"
	"github.com/kilianp07/unitcommit/pkg/export"
)

var (
	solveStyle  string
	solveFormat string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the configured problem once and print the schedule",
	Long: "Solve the configured problem once and print the schedule.\n" +
		"Interrupting the command stops the search and prints the best schedule found so far.",
	RunE: solveOnce,
}

func init() {
	solveCmd.Flags().StringVar(&solveStyle, "style", "", "encoding style: elementwise or bulk (overrides problem.style)")
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "table", "output format: table, csv or json")
	rootCmd.AddCommand(solveCmd)
}

func solveOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	format, err := export.ParseFormat(solveFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if solveStyle != "" {
		if _, err := commitment.ParseStyle(solveStyle); err != nil {
			return err
		}
		cfg.Problem.Style = solveStyle
	}
	if cfg.Problem.Path == "" {
		return fmt.Errorf("problem.path is not set in %s", cfgPath)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)
	svc.StartCollector(cmd.Context())

	rep, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), format, summary(rep), rep.Schedule)
}

func summary(rep app.Report) export.Summary {
	return export.Summary{
		RunID:        rep.RunID,
		Model:        rep.Model,
		Style:        rep.Style.String(),
		Status:       rep.Status.String(),
		EarlyStopped: rep.EarlyStopped,
		StopReason:   string(rep.StopReason),
		Objective:    rep.Objective,
		Gap:          rep.Gap,
		Runtime:      rep.Runtime,
	}
}
