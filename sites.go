package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List configured sites and their fetch strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTRATEGY\tENABLED\tURL")
		for _, s := range cfg.Sites {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.ID, s.Strategy, !s.Disabled, s.URL)
		}
		return w.Flush()
	},
}
