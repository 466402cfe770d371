// Package main implements the go-flow-graph CLI (gfg). It draws control flow,
// dependence and SSA graphs of Java methods.
package main

import (
	"os"

	"github.com/l3aro/go-flow-graph/cmd/gfg/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`gfg version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
