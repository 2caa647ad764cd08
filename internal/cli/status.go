package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gestmais/internal/core"
	"gestmais/internal/services"
)

func (a *app) statusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show payment status for a resident, apartment or building",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "resident <userID>",
		Short: "Payment status of the apartment assigned to a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			sum, err := svc.ResidentPaymentStatus(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			printSummary(out(cmd), sum)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apartment <apartmentID>",
		Short: "Payment status of one apartment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("apartment", args[0])
			if err != nil {
				return err
			}
			res, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			sum, err := svc.ApartmentPaymentStatus(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			printSummary(out(cmd), sum)
			return nil
		},
	})

	var apartments bool
	building := &cobra.Command{
		Use:   "building <buildingID>",
		Short: "Aggregate payment status of a building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("building", args[0])
			if err != nil {
				return err
			}
			res, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			if !apartments {
				sum, err := svc.BuildingPaymentStatus(cmd.Context(), id)
				if err != nil {
					return userError(err)
				}
				printSummary(out(cmd), sum)
				return nil
			}

			ov, err := svc.BuildingOverview(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			printSummary(out(cmd), ov.Summary)
			fmt.Fprintln(out(cmd))
			printApartments(out(cmd), ov.Apartments)
			return nil
		},
	}
	building.Flags().BoolVar(&apartments, "apartments", false, "also list every apartment's status")
	cmd.AddCommand(building)

	return cmd
}

func printSummary(w io.Writer, s core.PaymentStatusSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", s.Label)
	fmt.Fprintf(tw, "Estado:\t%s\t%s\n", s.Status, s.Message)
	fmt.Fprintf(tw, "Data:\t%04d-%02d-%02d\n", s.AsOf.Year, s.AsOf.Month, s.AsOf.Day)
	fmt.Fprintf(tw, "Quota mensal:\t%s\n", core.FormatEuros(s.Regular.MonthlyQuota))
	fmt.Fprintf(tw, "Quotas em dívida:\t%s\t(%d meses em atraso)\n",
		core.FormatEuros(s.Regular.Balance), s.Regular.OverdueMonths)
	fmt.Fprintf(tw, "Extraordinárias em dívida:\t%s\t(%d prestações em atraso, %d projetos ativos)\n",
		core.FormatEuros(s.Extraordinary.Balance), s.Extraordinary.OverdueInstallments, s.Extraordinary.ActiveProjects)
	fmt.Fprintf(tw, "Total em dívida:\t%s\n", core.FormatEuros(s.TotalBalance))
	tw.Flush()
}

func printApartments(w io.Writer, lines []core.ApartmentStatusLine) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFração\tResidente\tEstado\tQuotas\tExtraordinárias\tTotal")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ApartmentID, l.Unit, l.ResidentName, l.Summary.Status,
			core.FormatEuros(l.Summary.Regular.Balance),
			core.FormatEuros(l.Summary.Extraordinary.Balance),
			core.FormatEuros(l.Summary.TotalBalance))
	}
	tw.Flush()
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

// userError replaces a service failure with its user-facing message. The
// cause stays reachable through errors.Is.
func userError(err error) error {
	var f *services.Failure
	if errors.As(err, &f) {
		return &cliError{msg: f.UserMessage(), err: err}
	}
	return err
}

type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }
