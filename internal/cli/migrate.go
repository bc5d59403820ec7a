package cli

import (
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			// Open already migrated; a placeholder backend cannot be.
			if e.db.Placeholder {
				return errPlaceholder
			}

			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.write(map[string]string{"status": "migrated", "driver": string(e.db.Dialect)},
				"migrations applied (%s)\n", e.db.Dialect)
		},
	}
}
