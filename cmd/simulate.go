package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargecap/core/prediction"
	"github.com/kilianp07/chargecap/pkg/export"
)

var simulateOpts struct {
	station string
	current float64
	sampler prediction.NormalSampler
	risk    float64
	format  string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Recommend a contract for a synthetic normal peak distribution",
	RunE:  simulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.station, "station", "simulated", "station identifier")
	f.Float64Var(&simulateOpts.current, "current", 0, "current contracted capacity in kW")
	f.Float64Var(&simulateOpts.sampler.Mean, "mean", 0, "mean monthly peak in kW")
	f.Float64Var(&simulateOpts.sampler.StdDev, "stddev", 0, "standard deviation of the monthly peak in kW")
	f.IntVar(&simulateOpts.sampler.N, "samples", 1000, "number of samples to draw")
	f.Uint64Var(&simulateOpts.sampler.Seed, "seed", 1, "random seed")
	f.Float64Var(&simulateOpts.risk, "risk", 0, "risk tolerance in [0,1] (default from config)")
	f.StringVar(&simulateOpts.format, "format", "json", "output format: json or csv")
	_ = simulateCmd.MarkFlagRequired("current")
	_ = simulateCmd.MarkFlagRequired("mean")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(simulateOpts.format)
	if err != nil {
		return err
	}
	dist, err := simulateOpts.sampler.Samples()
	if err != nil {
		return err
	}
	rec, err := generate(cmd, simulateOpts.station, dist, simulateOpts.current, simulateOpts.risk)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), format, rec)
}
