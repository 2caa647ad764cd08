package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gestmais/internal/core"
	"gestmais/internal/services"
)

func (a *app) payCommand() *cobra.Command {
	var (
		status string
		amount string
	)
	cmd := &cobra.Command{
		Use:   "pay <apartmentID> <year> <month>",
		Short: "Record the regular quota payment status for one month",
		Long: `Record the regular quota payment status for one month.

Without --amount a paid mark records the apartment's apportioned quota.
Amounts are in euros, e.g. --amount 141.67.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			aptID, err := parseID("apartment", args[0])
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[1])
			}
			month, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[2])
			}

			req := services.UpdatePaymentRequest{
				ApartmentID: aptID,
				Year:        year,
				Month:       month,
				Status:      status,
			}
			if amount != "" {
				cents, err := core.ParseDecimalToCents(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
				req.Amount = &cents
			}

			res, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			p, err := svc.UpdatePaymentStatus(cmd.Context(), req)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(out(cmd), "%s %02d/%d apartamento %d: %s %s\n",
				services.MessagePaymentRecorded, p.Month, p.Year, p.ApartmentID, p.Status, core.FormatEuros(p.Amount))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(core.PaymentPaid), "payment status (paid, pending, late)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid in euros")
	return cmd
}
