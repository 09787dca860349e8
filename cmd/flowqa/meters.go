package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/flowqa/internal/cli"
	"github.com/spf13/cobra"
)

func metersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meters",
		Short: "List the water meter catalog",
		Long: `Display every water meter model that can be selected for a test,
with its multiplier and the formula used to convert dial deltas into liters.

The catalog can be replaced with a "meters" list in the config file or a
standalone YAML file named by catalog.file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Water Meter Catalog"))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Model"),
				cli.TableHeaderStyle.Render("Multiplier"),
				cli.TableHeaderStyle.Render("Formula"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 24),
				strings.Repeat("-", 10),
				strings.Repeat("-", 24))
			for _, m := range cat.Models() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.Multiplier.StringFixed(2), m.Formula.Describe())
			}
			return w.Flush()
		},
	}
}
