package tools

import (
	"net"
	"net/http"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/client"
	"github.com/ccnx/ccn-go/log"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type WsGate struct {
	listen string
	socket string
}

func CmdWsGate() *cobra.Command {
	g := WsGate{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "wsgate",
		Short:   "WebSocket gateway to the local daemon socket",
		Long: `WebSocket gateway to the local daemon socket.

Each WebSocket client gets its own stream connection to the daemon;
binary messages map one-to-one onto stream frames.`,
		Args: cobra.NoArgs,
		Run:  g.run,
	}

	cmd.Flags().StringVarP(&g.listen, "listen", "l", "127.0.0.1:9696", "HTTP listen address")
	cmd.Flags().StringVarP(&g.socket, "socket", "s", "", "Daemon socket path (default: client configuration)")
	return cmd
}

func (g *WsGate) String() string {
	return "wsgate"
}

func (g *WsGate) run(_ *cobra.Command, _ []string) {
	if g.socket == "" {
		g.socket = client.DefaultConfig().SocketName()
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error(g, "Upgrade failed", "err", err)
			return
		}
		defer ws.Close()

		conn, err := net.Dial("unix", g.socket)
		if err != nil {
			log.Error(g, "Unable to reach daemon", "socket", g.socket, "err", err)
			return
		}
		defer conn.Close()

		go func() {
			for {
				kind, frame, err := ws.ReadMessage()
				if err != nil {
					conn.Close()
					return
				}
				if kind != websocket.BinaryMessage {
					continue
				}
				if _, err := conn.Write(frame); err != nil {
					return
				}
			}
		}()

		// reframe the daemon's byte stream into one message per
		// top-level element
		var d ccnb.SkeletonDecoder
		var buf []byte
		chunk := make([]byte, 8800)
		for {
			n, err := conn.Read(chunk)
			if err != nil {
				return
			}
			buf = append(buf, chunk[:n]...)
			for {
				d.Decode(buf[d.Index:])
				if d.State < 0 {
					log.Error(g, "Garbled stream from daemon")
					return
				}
				if d.State != 0 {
					break
				}
				if err := ws.WriteMessage(websocket.BinaryMessage, buf[:d.Index]); err != nil {
					return
				}
				buf = append([]byte{}, buf[d.Index:]...)
				d.Reset()
			}
		}
	})

	log.Info(g, "Gateway listening", "addr", g.listen, "socket", g.socket)
	if err := http.ListenAndServe(g.listen, nil); err != nil {
		log.Fatal(g, "Listener failed", "err", err)
	}
}
