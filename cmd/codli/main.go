package main

import (
	"os"

	"github.com/EquablePanic4/codli-gci/pkg/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersionInfo(version, commit)
	os.Exit(cli.Execute())
}
