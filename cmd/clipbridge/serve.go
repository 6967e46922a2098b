package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/history"
	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/monitor"
	"go.klb.dev/clipbridge/internal/server"
	"go.klb.dev/clipbridge/internal/xclip"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard bridge daemon",
		Long: `Starts the clipbridge daemon: the clipboard monitor, the broadcast hub,
and the HTTP + WebSocket API.

Product settings (port, history, monitor interval) live in a persisted
settings file that the /api/settings endpoint also edits. Flags override
settings for this run only.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	f := cmd.Flags()
	f.String("settings", config.DefaultPath(), "path to the persisted settings file")
	f.Int("port", 0, "listen port (0 = from settings)")
	f.Int("monitor-interval", 0, "clipboard poll interval in seconds (0 = from settings)")
	f.Bool("enable-history", false, "record clipboard history this run regardless of settings")
	f.String("helper-user", "deck", "user the xclip helper runs as via sudo (empty = current user)")
	f.String("bundled-bin", "", "directory holding a bundled xclip binary, preferred over system installs")
	f.String("session-env", "", "session environment file to resolve DISPLAY from (default: gamescope)")
	f.String("xauthority", "", "Xauthority file handed to the helper (default: session user's)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(v *viper.Viper) error {
	setupLogging(v)

	store := config.NewStore(v.GetString("settings"))
	st := store.Load()

	port := v.GetInt("port")
	if port == 0 {
		port = st.Port
	}
	intervalSec := v.GetInt("monitor-interval")
	if intervalSec == 0 {
		intervalSec = st.MonitorInterval
	}

	adapter := xclip.New(xclip.Config{
		BundledDir: v.GetString("bundled-bin"),
		User:       v.GetString("helper-user"),
		EnvFile:    v.GetString("session-env"),
		Authority:  v.GetString("xauthority"),
	})

	slog.Info("clipbridge starting",
		"version", Version,
		"port", port,
		"clipboard_available", adapter.Available(),
		"history", st.EnableHistory,
	)
	if !st.AutoStart {
		// auto_start gates the plugin frontend's automatic launch; an
		// explicit serve always runs.
		slog.Debug("auto_start disabled in settings")
	}

	h := hub.New()
	hist := history.New(history.DefaultCapacity)

	forceHistory := v.GetBool("enable-history")
	poller := monitor.New(adapter, h, hist,
		time.Duration(intervalSec)*time.Second,
		func() bool { return forceHistory || store.Current().EnableHistory },
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)

	srv := server.New(adapter, h, hist, store)
	return srv.Run(ctx, fmt.Sprintf("0.0.0.0:%d", port))
}
