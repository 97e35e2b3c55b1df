package cmd

import (
	"github.com/spf13/cobra"
)

var InstallCommand = &cobra.Command{
	Use:   "install <repo>/<pkg> [<repo>/<pkg>...]",
	Short: "Install the closure of each named package",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		for _, a := range args {
			repoName, pkgName, err := parseRef(a)
			if err != nil {
				return err
			}
			if err := m.Install(ctx, repoName, pkgName); err != nil {
				return err
			}
		}
		return nil
	},
}
