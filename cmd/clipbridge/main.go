// clipbridge: system clipboard over the local network.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipbridge/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipbridge",
		Short: "Share the host clipboard over HTTP + WebSocket",
		Long: `clipbridge bridges the host system clipboard to browsers on the local
network. Clipboard access goes through an external xclip helper executed
under the desktop session user, so the daemon can run as a system service
(or as root) outside the session.

Run "clipbridge serve" on the host. Any device on the LAN can then read and
set the clipboard at http://<host>:<port>/, or follow live changes over the
/api/ws stream. "clipbridge copy/paste/status" talk to a running daemon.

Config file search order (first found wins):
  /etc/clipbridge/clipbridge.toml
  $HOME/.config/clipbridge/clipbridge.toml
  path supplied via --config

All flags can be set via CLIPBRIDGE_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipbridge %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr, interactive)
	logging.Setup(format, level)
}
