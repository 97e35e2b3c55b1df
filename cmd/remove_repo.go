package cmd

import (
	"github.com/spf13/cobra"
)

var RemoveRepoCommand = &cobra.Command{
	Use:   "remove-repo <name>",
	Short: "Remove a repository, refusing if any installed package references it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.RemoveRepo(args[0])
	},
}
