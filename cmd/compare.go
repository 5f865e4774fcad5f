package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargecap/core/tariff"
	"github.com/kilianp07/chargecap/pkg/export"
)

var compareOpts struct {
	current float64
	next    float64
	actual  float64
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the annual cost of two contracts for a given peak",
	RunE:  compare,
}

func init() {
	f := compareCmd.Flags()
	f.Float64Var(&compareOpts.current, "current", 0, "current contracted capacity in kW")
	f.Float64Var(&compareOpts.next, "new", 0, "proposed contracted capacity in kW")
	f.Float64Var(&compareOpts.actual, "actual", 0, "monthly peak demand in kW")
	_ = compareCmd.MarkFlagRequired("current")
	_ = compareCmd.MarkFlagRequired("new")
	_ = compareCmd.MarkFlagRequired("actual")
	rootCmd.AddCommand(compareCmd)
}

func compare(cmd *cobra.Command, _ []string) error {
	cfg, err := loadOfflineConfig(cmd)
	if err != nil {
		return err
	}
	cm, err := tariff.NewCostModel(cfg.Tariff)
	if err != nil {
		return err
	}
	res, err := cm.CompareContracts(compareOpts.current, compareOpts.next, compareOpts.actual)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), res)
}
