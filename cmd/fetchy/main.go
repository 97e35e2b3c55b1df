package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/fetchy-pm/fetchy/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	err := fang.Execute(
		context.Background(),
		cmd.RootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(syscall.SIGINT, syscall.SIGTERM),
	)
	os.Exit(cmd.ExitCode(err))
}
