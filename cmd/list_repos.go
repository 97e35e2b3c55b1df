package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ListReposCommand = &cobra.Command{
	Use:   "list-repos",
	Short: "Print known repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		names, err := m.ListRepos()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}
