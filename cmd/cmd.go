package cmd

import (
	"github.com/ccnx/ccn-go/tools"
	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "unknown"

const banner = `
   ___ ___ _ __
  / __/ __| '_ \
 | (_| (__| | | |
  \___\___|_| |_|

Content-Centric Networking client tools
`

var CmdCcn = &cobra.Command{
	Use:     "ccn",
	Short:   "Content-Centric Networking client tools",
	Long:    banner[1:],
	Version: Version,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdCcn.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdCcn.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdCcn.PersistentFlags().Lookup("help").Hidden = true

	CmdCcn.AddGroup(&cobra.Group{ID: "tools", Title: "Client Tools"})
	CmdCcn.AddCommand(tools.CmdPeek())
	CmdCcn.AddCommand(tools.CmdPoke())
	CmdCcn.AddCommand(tools.CmdWsGate())
}
