package main

import (
	"os"

	"github.com/ccnx/ccn-go/cmd"
)

func main() {
	if err := cmd.CmdCcn.Execute(); err != nil {
		os.Exit(1)
	}
}
