package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/menumerge/internal/cmd/output"
	"github.com/agentstation/menumerge/pkg/errors"
)

// NewShowCommand creates the show command.
func (a *App) NewShowCommand() *cobra.Command {
	var primary bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current merged snapshot",
		Example: `  menumerge show
  menumerge show --format yaml
  menumerge show --primary --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			format, err := output.ParseFormat(a.config.Format)
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(output.DetectFormat(string(format)))

			client, err := a.Client(ctx, false)
			if err != nil {
				return err
			}

			if primary {
				dataset, err := client.Primary(ctx)
				if errors.IsNotFound(err) {
					return errors.NewNotFoundError("primary dataset", "submit one with `menumerge submit <file>`")
				}
				if err != nil {
					return err
				}
				return formatter.Format(cmd.OutOrStdout(), dataset)
			}

			snapshot, err := client.Snapshot(ctx)
			if errors.IsNotFound(err) {
				return errors.NewNotFoundError("snapshot", "no cycle has succeeded yet; run `menumerge update`")
			}
			if err != nil {
				return err
			}
			return formatter.Format(cmd.OutOrStdout(), snapshot)
		},
	}

	cmd.Flags().BoolVar(&primary, "primary", false, "show the stored primary dataset instead")
	return cmd
}
