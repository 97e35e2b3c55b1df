package cmd

import (
	"github.com/spf13/cobra"
)

var AddRepoCommand = &cobra.Command{
	Use:   "add-repo <path>",
	Short: "Parse, load, and persist a repository file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		_, _, err = m.AddRepo(args[0])
		return err
	},
}
