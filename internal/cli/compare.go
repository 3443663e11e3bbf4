package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/pubstress/internal/stress/report"
)

// ErrRegression is returned by compare --fail-on-regression.
var ErrRegression = errors.New("performance regression detected")

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare BASELINE CURRENT",
		Short: "Compare two structured result files",
		Long: `Print the change of every reported metric between two JSON results.

Throughput falling or latency rising by more than --threshold percent is
flagged as a regression:
  pubstress compare baseline.json current.json --threshold 5 --fail-on-regression`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			current, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			threshold, _ := cmd.Flags().GetFloat64("threshold")
			failOnRegression, _ := cmd.Flags().GetBool("fail-on-regression")

			deltas, err := report.Compare(baseline, current)
			if err != nil {
				return err
			}
			if err := report.WriteComparison(cmd.OutOrStdout(), deltas, threshold); err != nil {
				return err
			}

			if regressions := report.Regressions(deltas, threshold); failOnRegression && len(regressions) > 0 {
				return fmt.Errorf("%w: %d metric(s) worse than %.1f%%", ErrRegression, len(regressions), threshold)
			}
			return nil
		},
	}

	cmd.Flags().Float64("threshold", 10, "Percent change treated as a regression")
	cmd.Flags().Bool("fail-on-regression", false, "Exit non-zero when any metric regresses")
	return cmd
}
