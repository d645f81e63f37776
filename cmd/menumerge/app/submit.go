package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/menus"
)

// NewSubmitCommand creates the submit command.
func (a *App) NewSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file>",
		Short: "Validate and store a primary dataset",
		Long: `Read a primary dataset (JSON) from a file, or from stdin when the file
is "-", validate it and store it. The next cycle merges it.`,
		Example: `  menumerge submit data-a.json
  cat data-a.json | menumerge submit -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dataset, err := readPrimary(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			client, err := a.Client(ctx, false)
			if err != nil {
				return err
			}
			if err := client.SubmitPrimary(ctx, dataset); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored primary dataset: %d items, %d VAT rates\n",
				len(dataset.Menus), len(dataset.VatRates))
			return err
		},
	}
}

func readPrimary(stdin io.Reader, path string) (*menus.PrimaryDataset, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WrapIO("open", path, err)
		}
		defer f.Close()
		r = f
	}

	var dataset menus.PrimaryDataset
	if err := json.NewDecoder(io.LimitReader(r, constants.MaxRequestBytes)).Decode(&dataset); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &dataset, nil
}
