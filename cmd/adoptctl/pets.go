package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pet-adoption-api/internal/client"
)

func newPetsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pets",
		Short: "Consultas sobre mascotas",
	}
	cmd.AddCommand(newPetsListCmd(opts))
	return cmd
}

func newPetsListCmd(opts *globalOptions) *cobra.Command {
	var (
		params         client.ListPetsParams
		minAge, maxAge int
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista mascotas disponibles con filtros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("min-age") {
				params.MinAge = &minAge
			}
			if cmd.Flags().Changed("max-age") {
				params.MaxAge = &maxAge
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			page, err := c.ListPets(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("list pets: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(page)
			}

			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No pets match the filters.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REF\tNAME\tSPECIES\tAGE\tSIZE\tPROMOTED")
			for _, p := range page.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%t\n", p.RefNumber, p.Name, p.Species, p.Age, p.Size, p.Promoted)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			pg := page.Pagination
			fmt.Fprintf(out, "page %d/%d (%d pets)\n", pg.CurrentPage, pg.TotalPages, pg.TotalItems)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&params.Species, "species", nil, "capybara,guinea_pig,rock_cavy,chinchilla")
	f.StringSliceVar(&params.Sizes, "size", nil, "small,medium,large,extra_large")
	f.IntVar(&minAge, "min-age", 0, "edad mínima")
	f.IntVar(&maxAge, "max-age", 20, "edad máxima")
	f.StringVar(&params.Search, "search", "", "texto en nombre o descripción")
	f.StringVar(&params.Sort, "sort", "", "dateListed | age | name")
	f.StringVar(&params.Order, "order", "", "asc | desc")
	f.IntVar(&params.Page, "page", 1, "página (1-based)")
	f.IntVar(&params.Limit, "limit", 0, "tamaño de página")
	f.BoolVar(&asJSON, "json", false, "salida JSON")
	return cmd
}
