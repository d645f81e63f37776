package app

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/menumerge/internal/cmd/output"
)

// NewUpdateCommand creates the update command.
func (a *App) NewUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Run one reconciliation cycle now",
		Long: `Fetch the secondary dataset, merge it with the stored primary dataset
and replace the snapshot. On failure the stored snapshot is left unchanged
and the command exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, true)
			if err != nil {
				return err
			}

			result, err := client.Update(ctx)
			if err != nil {
				return err
			}

			format := output.DetectFormat(a.config.Format)
			if format != output.FormatTable {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), result.Stats)
			}
			s := result.Stats
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.Data{
				Headers: []string{"Metric", "Value"},
				Rows: [][]string{
					{"Groups", strconv.Itoa(s.Groups)},
					{"Overridden items", strconv.Itoa(s.Overridden)},
					{"Secondary-only items", strconv.Itoa(s.SecondaryOnly)},
					{"Primary-only items (dropped)", strconv.Itoa(s.PrimaryOnly)},
					{"Rate collisions", strconv.Itoa(s.RateCollisions)},
					{"Last update", result.Snapshot.LastUpdate.Time.Format("2006-01-02T15:04:05Z07:00")},
				},
				RightAligned: []int{1},
			})
		},
	}
}
