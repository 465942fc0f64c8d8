package tools

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/client"
	"github.com/ccnx/ccn-go/log"
	"github.com/ccnx/ccn-go/security"
	"github.com/spf13/cobra"
)

type Poke struct {
	timeout int
	keyFile string
	config  string
}

func CmdPoke() *cobra.Command {
	p := Poke{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "poke NAME",
		Short:   "Publish stdin as one signed ContentObject",
		Long: `Publish stdin as one signed ContentObject.

Registers an Interest filter on NAME, serves the first matching
Interest, then exits. The object embeds the signing key in its
locator so any consumer can verify it.`,
		Args:    cobra.ExactArgs(1),
		Example: `  echo hello | ccn poke /my/data`,
		Run:     p.run,
	}

	cmd.Flags().IntVarP(&p.timeout, "timeout", "t", 30000, "Timeout in milliseconds")
	cmd.Flags().StringVarP(&p.keyFile, "key", "k", "", "PEM-encoded signing key (default: fresh ECDSA P-256)")
	cmd.Flags().StringVarP(&p.config, "config", "c", "", "Client configuration file")
	return cmd
}

func (p *Poke) String() string {
	return "poke"
}

func (p *Poke) signer() (security.Signer, error) {
	if p.keyFile == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		return security.NewEccSigner(key), nil
	}
	raw, err := os.ReadFile(p.keyFile)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", p.keyFile)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		return security.NewEccSigner(k), nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
}

func (p *Poke) run(_ *cobra.Command, args []string) {
	name, err := ccnb.NameFromURI(args[0])
	if err != nil {
		log.Fatal(p, "Invalid name", "name", args[0], "err", err)
		return
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal(p, "Unable to read stdin", "err", err)
		return
	}

	signer, err := p.signer()
	if err != nil {
		log.Fatal(p, "Unable to load signing key", "err", err)
		return
	}
	object, err := security.SignContentObject(name, payload, signer,
		security.ContentOptions{EmbedKey: true})
	if err != nil {
		log.Fatal(p, "Unable to sign object", "err", err)
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

	served := false
	filter := &client.Closure{
		F: func(c *client.Closure, kind client.UpcallKind, info *client.UpcallInfo) client.UpcallRes {
			switch kind {
			case client.UpcallInterest, client.UpcallConsumedInterest:
				if err := info.H.Put(object); err != nil {
					log.Error(p, "Unable to send object", "err", err)
					return client.UpcallResultErr
				}
				served = true
				info.H.SetRunTimeout(0)
				return client.UpcallResultInterestConsumed
			default:
				return client.UpcallResultOk
			}
		},
	}
	if err := h.SetInterestFilter(name, filter); err != nil {
		log.Fatal(p, "Unable to register filter", "err", err)
		return
	}

	if err := h.Run(p.timeout); err != nil {
		log.Fatal(p, "Event loop failed", "err", err)
		return
	}
	if !served {
		log.Fatal(p, "No Interest arrived before the timeout")
		return
	}
	log.Info(p, "Object served", "name", args[0], "bytes", len(object))
}
