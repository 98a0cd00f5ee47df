package main

import (
	"fmt"
	"strings"

	"carsearch_frontend/internal/search/table"
	"carsearch_frontend/internal/search/transport"

	"github.com/spf13/cobra"
)

func newFormCmd() *cobra.Command {
	var criteria transport.FormCriteria

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Run a structured search",
		Long: `Run a structured search. Every flag is optional; an empty value means no
constraint. Dates use YYYY-MM-DD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			rows, err := svc.FormSearch(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			return printRows(cmd, rows)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&criteria.RegistrationNumber, "registration-number", "", "registration number")
	flags.StringVar(&criteria.ManufacturedTimeFrom, "manufactured-from", "", "earliest manufacture date (YYYY-MM-DD)")
	flags.StringVar(&criteria.ManufacturedTimeTo, "manufactured-to", "", "latest manufacture date (YYYY-MM-DD)")
	flags.StringVar(&criteria.PriceFromIncluding, "price-from", "", "minimum price, inclusive")
	flags.StringVar(&criteria.PriceTo, "price-to", "", "maximum price")
	flags.StringVar(&criteria.NumberOfKilometers, "kilometers", "", "number of kilometers")
	flags.StringVar(&criteria.CarTypeMake, "make", "", "make")
	flags.StringVar(&criteria.CarTypeModel, "model", "", "model")

	return cmd
}

func newTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <query>",
		Short: "Run a free-text search across all vehicle fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			rows, err := svc.FreeTextSearch(cmd.Context(), transport.FreeTextCriteria{Search: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			return printRows(cmd, rows)
		},
	}
}

func printRows(cmd *cobra.Command, rows []transport.Vehicle) error {
	out := cmd.OutOrStdout()
	if err := table.WriteText(out, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d result(s)\n", len(rows))
	return err
}
