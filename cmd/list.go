package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ListCommand = &cobra.Command{
	Use:   "list",
	Short: "Print installed packages with version and origin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		rows, err := m.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PACKAGE\tVERSION\tORIGIN\tINSTALLED AS")
		for _, r := range rows {
			fmt.Fprintf(w, "%s/%s\t%s\t%s\t%s\n", r.RepoName, r.PackageName, r.ResolvedVersion, r.Platform, r.InstalledAs)
		}
		return w.Flush()
	},
}
