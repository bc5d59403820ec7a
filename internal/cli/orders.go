package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shiptrack/internal/notifier"
	"shiptrack/internal/order"
	"shiptrack/internal/storage"
)

func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect orders",
	}
	cmd.AddCommand(newOrdersListCommand(rootOpts))
	return cmd
}

type orderRow struct {
	ID           int64  `json:"id"`
	CompanyName  string `json:"company_name"`
	PINumber     string `json:"pi_number"`
	ETD          string `json:"etd"`
	ETA          string `json:"eta"`
	PaymentTerms string `json:"payment_terms"`
	CreatedAt    string `json:"created_at"`
}

func newOrdersListCommand(rootOpts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			hub := notifier.NewHub(0, e.logger)
			defer hub.Close()

			orders, err := order.NewService(e.db, hub, e.logger).ListOrders(cmd.Context(), userID)
			if err != nil {
				return describe(err)
			}

			rows := make([]orderRow, len(orders))
			for i, o := range orders {
				rows[i] = orderRow{
					ID:           o.ID,
					CompanyName:  o.CompanyName,
					PINumber:     o.PINumber,
					ETD:          storage.FormatDate(o.ETD),
					ETA:          storage.FormatDate(o.ETA),
					PaymentTerms: string(o.PaymentTerms),
					CreatedAt:    o.CreatedAt.Format("2006-01-02 15:04:05"),
				}
			}

			if rootOpts.Format == "json" {
				return newOutput(rootOpts.Format, cmd.OutOrStdout()).write(map[string]any{"orders": rows}, "")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPANY\tPI NUMBER\tETD\tETA\tTERMS\tCREATED")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.CompanyName, r.PINumber, r.ETD, r.ETA, r.PaymentTerms, r.CreatedAt)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "owner of the orders")
	cmd.MarkFlagRequired("user-id")

	return cmd
}
