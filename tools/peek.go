package tools

import (
	"fmt"
	"os"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/client"
	"github.com/ccnx/ccn-go/log"
	"github.com/spf13/cobra"
)

type Peek struct {
	timeout int
	raw     bool
	config  string
}

func CmdPeek() *cobra.Command {
	p := Peek{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "peek NAME",
		Short:   "Fetch one ContentObject and write it to stdout",
		Args:    cobra.ExactArgs(1),
		Example: `  ccn peek /my/data`,
		Run:     p.run,
	}

	cmd.Flags().IntVarP(&p.timeout, "timeout", "t", 4000, "Timeout in milliseconds")
	cmd.Flags().BoolVar(&p.raw, "raw", false, "Write the whole encoded object, not just the payload")
	cmd.Flags().StringVarP(&p.config, "config", "c", "", "Client configuration file")
	return cmd
}

func (p *Peek) String() string {
	return "peek"
}

func (p *Peek) run(_ *cobra.Command, args []string) {
	name, err := ccnb.NameFromURI(args[0])
	if err != nil {
		log.Fatal(p, "Invalid name", "name", args[0], "err", err)
		return
	}

	cfg := client.DefaultConfig()
	if p.config != "" {
		if cfg, err = client.LoadConfig(p.config); err != nil {
			log.Fatal(p, "Unable to load configuration", "err", err)
			return
		}
	}

	h := client.NewHandleWithConfig(cfg)
	defer h.Destroy()
	if _, err := h.Connect(""); err != nil {
		log.Fatal(p, "Unable to connect to daemon", "err", err)
		return
	}

	result, pco, _, err := client.Get(h, name, -1, nil, p.timeout)
	if err != nil {
		log.Fatal(p, "Fetch failed", "name", args[0], "err", err)
		return
	}

	out := result
	if !p.raw {
		if out, err = pco.ContentValue(result); err != nil {
			log.Fatal(p, "Object has no content", "err", err)
			return
		}
	}
	os.Stdout.Write(out)
	if !p.raw {
		fmt.Println()
	}
}
