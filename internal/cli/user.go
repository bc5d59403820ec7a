package cli

import (
	"github.com/spf13/cobra"

	"shiptrack/internal/user"
)

func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := user.NewService(e.db, e.cfg.Auth, e.logger)
			id, err := svc.CreateUser(cmd.Context(), username, password)
			if err != nil {
				return describe(err)
			}

			out := newOutput(rootOpts.Format, cmd.OutOrStdout())
			return out.write(map[string]any{"id": id, "username": username},
				"created user %s (id %d)\n", username, id)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (at least 3 characters)")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}
