package cmd

import (
	"github.com/spf13/cobra"
)

var UninstallCommand = &cobra.Command{
	Use:   "uninstall <repo>/<pkg>",
	Short: "Uninstall a package, subject to breakage check and orphan sweep",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		repoName, pkgName, err := parseRef(args[0])
		if err != nil {
			return err
		}
		return m.Uninstall(repoName, pkgName)
	},
}
