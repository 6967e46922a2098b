package hub

import (
	"context"
	"log/slog"
)

// logUpdate logs a fan-out at INFO (mime, client count) and DEBUG (text
// preview up to 120 chars, or encoded size for binary content).
func logUpdate(u Update, clients int) {
	slog.Info("broadcasting clipboard change", "mime", u.Mime, "clients", clients)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if u.IsBinary {
		slog.Debug("clipboard update", "mime", u.Mime, "encoded_bytes", len(u.Content))
		return
	}
	preview := u.Content
	if len(preview) > 120 {
		preview = preview[:120] + "…"
	}
	slog.Debug("clipboard update", "mime", u.Mime, "preview", preview)
}
