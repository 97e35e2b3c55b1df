package cmd

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fetchy-pm/fetchy/pkg/archive"
	"github.com/fetchy-pm/fetchy/pkg/asset"
	"github.com/fetchy-pm/fetchy/pkg/checksum"
	"github.com/fetchy-pm/fetchy/pkg/depgraph"
	"github.com/fetchy-pm/fetchy/pkg/fetch"
	"github.com/fetchy-pm/fetchy/pkg/manager"
	"github.com/fetchy-pm/fetchy/pkg/platform"
	"github.com/fetchy-pm/fetchy/pkg/repository"
	"github.com/fetchy-pm/fetchy/pkg/store"
	"github.com/fetchy-pm/fetchy/pkg/syntax"
)

var (
	// Global flags
	verbose bool
	quiet   bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "fetchy",
	Short: "A user-space binary package manager",
	Long: `fetchy installs, updates, and removes single-binary tools fetched
from GitHub releases or direct URLs, tracked in a per-user install store
with no root privileges and no centralized registry.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.Default)
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("verbose logging enabled")
		} else if quiet {
			log.SetLevel(log.ErrorLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

// ExitCode maps an error's taxonomy to the process exit code spec.md §6
// defines: 0 success, 1 user/validation error, 2 network error, 3 lock/IO
// error. cmd/fetchy/main.go calls this on whatever fang.Execute returns.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch errors.Cause(err).(type) {
	case *syntax.SyntaxError,
		*repository.RepositoryError,
		*asset.NoAssetForPlatform,
		*fetch.AssetNotFound,
		*fetch.AmbiguousAsset,
		*fetch.NoReleaseFound,
		*archive.BinaryNotFound,
		*archive.AmbiguousBinary,
		*checksum.ChecksumNotFound,
		*checksum.ChecksumMismatch,
		*platform.ErrUnsupportedHost,
		*depgraph.CrossRepoConflict,
		*depgraph.WouldBreakDependents,
		*manager.RepoNotFound,
		*manager.RepoInUse,
		*manager.PackageNotDeclared,
		*store.NotFound,
		*store.AlreadyInstalled:
		return 1
	case *fetch.NetworkError, *fetch.RateLimited:
		return 2
	case *store.LockTimeout, *os.PathError, *os.LinkError, *os.SyscallError:
		return 3
	default:
		return 1
	}
}

func init() {
	cobra.EnableCommandSorting = false

	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "increase log verbosity")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress progress output")

	RootCmd.AddGroup(&cobra.Group{ID: "repos", Title: "Repository Commands:"})
	RootCmd.AddGroup(&cobra.Group{ID: "packages", Title: "Package Commands:"})
	RootCmd.SetHelpCommandGroupID("packages")
	RootCmd.SetCompletionCommandGroupID("packages")

	AddRepoCommand.GroupID = "repos"
	RemoveRepoCommand.GroupID = "repos"
	ListReposCommand.GroupID = "repos"
	InstallCommand.GroupID = "packages"
	UninstallCommand.GroupID = "packages"
	UpdateCommand.GroupID = "packages"
	ListCommand.GroupID = "packages"

	RootCmd.AddCommand(AddRepoCommand)
	RootCmd.AddCommand(RemoveRepoCommand)
	RootCmd.AddCommand(ListReposCommand)
	RootCmd.AddCommand(InstallCommand)
	RootCmd.AddCommand(UninstallCommand)
	RootCmd.AddCommand(UpdateCommand)
	RootCmd.AddCommand(ListCommand)
}
