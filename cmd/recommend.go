package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargecap/app"
	"github.com/kilianp07/chargecap/core/model"
	"github.com/kilianp07/chargecap/core/prediction"
	"github.com/kilianp07/chargecap/pkg/export"
)

var recommendOpts struct {
	station string
	current float64
	samples string
	risk    float64
	format  string
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a contract from a file of predicted monthly peaks",
	RunE:  recommend,
}

func init() {
	f := recommendCmd.Flags()
	f.StringVar(&recommendOpts.station, "station", "", "station identifier")
	f.Float64Var(&recommendOpts.current, "current", 0, "current contracted capacity in kW")
	f.StringVar(&recommendOpts.samples, "samples", "", "YAML or JSON file of predicted monthly peaks")
	f.Float64Var(&recommendOpts.risk, "risk", 0, "risk tolerance in [0,1] (default from config)")
	f.StringVar(&recommendOpts.format, "format", "json", "output format: json or csv")
	_ = recommendCmd.MarkFlagRequired("station")
	_ = recommendCmd.MarkFlagRequired("current")
	_ = recommendCmd.MarkFlagRequired("samples")
	rootCmd.AddCommand(recommendCmd)
}

func recommend(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(recommendOpts.format)
	if err != nil {
		return err
	}
	dist, err := prediction.LoadSamples(recommendOpts.samples)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	rec, err := generate(cmd, recommendOpts.station, dist, recommendOpts.current, recommendOpts.risk)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), format, rec)
}

// generate runs the engine, honouring --risk only when it was set.
func generate(cmd *cobra.Command, station string, dist []float64, current, risk float64) (model.Recommendation, error) {
	cfg, err := loadOfflineConfig(cmd)
	if err != nil {
		return model.Recommendation{}, err
	}
	engine, err := app.NewEngine(cfg)
	if err != nil {
		return model.Recommendation{}, err
	}
	if cmd.Flags().Changed("risk") {
		return engine.GenerateWithRisk(station, dist, current, risk)
	}
	return engine.Generate(station, dist, current)
}
