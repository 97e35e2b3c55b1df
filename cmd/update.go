package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fetchy-pm/fetchy/pkg/depgraph"
)

var UpdateCommand = &cobra.Command{
	Use:   "update [<repo>/<pkg>...]",
	Short: "Re-resolve and upgrade packages; no arguments means all of them",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		var refs []depgraph.Ref
		for _, a := range args {
			repoName, pkgName, err := parseRef(a)
			if err != nil {
				return err
			}
			refs = append(refs, depgraph.Ref{RepoName: repoName, PackageName: pkgName})
		}

		return m.Update(cmd.Context(), refs)
	},
}
