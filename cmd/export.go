package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/unitcommit/core/commitment"
	"github.com/kilianp07/unitcommit/core/knapsack"
	"github.com/kilianp07/unitcommit/core/mip"
	"github.com/kilianp07/unitcommit/core/model"
	"github.com/kilianp07/unitcommit/core/portfolio"
	"github.com/kilianp07/unitcommit/core/slideshow"
	"github.com/kilianp07/unitcommit/infra/solver/lpfile"
)

// Model families accepted by the export command.
const (
	familyUnitCommitment = "unitcommitment"
	familyKnapsack       = "knapsack"
	familyPortfolio      = "portfolio"
	familySlideshow      = "slideshow"
)

type exportOptions struct {
	family string
	input  string
	output string
	style  string
	items  int
	seed   uint64
	// notes receives informational output that must stay off the LP stream.
	notes io.Writer
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a model as a CPLEX LP file",
	Long: "Write a model as a CPLEX LP file.\n" +
		"Without --input the unit commitment problem comes from the configuration\n" +
		"and the knapsack instance is generated from --items and --seed.",
	RunE: exportModel,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.family, "family", familyUnitCommitment, "model family: unitcommitment, knapsack, portfolio or slideshow")
	f.StringVarP(&exportOpts.input, "input", "i", "", "input data file")
	f.StringVarP(&exportOpts.output, "output", "o", "-", "output LP file, - for stdout")
	f.StringVar(&exportOpts.style, "style", "", "unit commitment encoding style: elementwise or bulk")
	f.IntVar(&exportOpts.items, "items", 100, "number of generated knapsack items")
	f.Uint64Var(&exportOpts.seed, "seed", 0, "knapsack generator seed")
	rootCmd.AddCommand(exportCmd)
}

func exportModel(cmd *cobra.Command, args []string) error {
	opts := exportOpts
	opts.notes = cmd.ErrOrStderr()
	if opts.family == familyUnitCommitment && opts.input == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts.input = cfg.Problem.Path
		if opts.style == "" {
			opts.style = cfg.Problem.Style
		}
	}
	m, err := buildModel(opts)
	if err != nil {
		return err
	}
	if opts.output == "-" {
		return lpfile.Write(cmd.OutOrStdout(), m)
	}
	if err := lpfile.WriteFile(opts.output, m); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s: %d variables, %d constraints\n", opts.output, m.NumVars(), m.NumConstraints())
	return err
}

func buildModel(opts exportOptions) (*mip.Model, error) {
	switch strings.ToLower(opts.family) {
	case familyUnitCommitment:
		if opts.input == "" {
			return nil, fmt.Errorf("no problem file: set problem.path or --input")
		}
		style, err := commitment.ParseStyle(opts.style)
		if err != nil {
			return nil, err
		}
		p, err := model.LoadProblem(opts.input)
		if err != nil {
			return nil, err
		}
		enc, err := commitment.Encode(p, style)
		if err != nil {
			return nil, err
		}
		return enc.Model, nil
	case familyKnapsack:
		var inst knapsack.Instance
		var err error
		if opts.input == "" {
			inst, err = knapsack.Generate(opts.items, opts.seed)
		} else {
			err = withFile(opts.input, func(r io.Reader) (err error) {
				inst, err = knapsack.Load(r)
				return err
			})
		}
		if err != nil {
			return nil, err
		}
		enc, err := knapsack.Encode(inst)
		if err != nil {
			return nil, err
		}
		if bound, _, err := inst.RelaxationBound(); err == nil && opts.notes != nil {
			_, _ = fmt.Fprintf(opts.notes, "knapsack: %d items, lp relaxation bound %.3f\n", len(inst.Values), bound)
		}
		return enc.Model, nil
	case familyPortfolio:
		var data portfolio.Data
		if err := withFile(opts.input, func(r io.Reader) (err error) {
			data, err = portfolio.Load(r)
			return err
		}); err != nil {
			return nil, err
		}
		enc, err := portfolio.Encode(data)
		if err != nil {
			return nil, err
		}
		return enc.Model, nil
	case familySlideshow:
		var photos []slideshow.Photo
		if err := withFile(opts.input, func(r io.Reader) (err error) {
			photos, err = slideshow.Parse(r)
			return err
		}); err != nil {
			return nil, err
		}
		enc, err := slideshow.Encode(photos)
		if err != nil {
			return nil, err
		}
		return enc.Model, nil
	default:
		return nil, fmt.Errorf("unknown model family %q", opts.family)
	}
}

func withFile(path string, fn func(io.Reader) error) error {
	if path == "" {
		return fmt.Errorf("--input is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return fn(f)
}
