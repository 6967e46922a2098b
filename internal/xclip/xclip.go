// Package xclip wraps the privileged external clipboard helper. All reads and
// writes against the host clipboard go through an xclip subprocess executed
// under the session user with an explicitly supplied display context, because
// the daemon itself typically runs as root outside the desktop session.
//
// Every failure mode (missing binary, timeout, non-zero exit) is absorbed
// here and surfaced as an error value; nothing in this package panics or
// takes the caller down with it.
package xclip

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.klb.dev/clipbridge/internal/snapshot"
)

// textTargets is the preference order when picking a text representation
// from the advertised clipboard targets.
var textTargets = []string{"UTF8_STRING", "text/plain", "text/uri-list", "STRING"}

// mimePattern is the only shape of MIME type accepted on writes. The type
// ends up inside a shell command line, so anything beyond a plain
// type/subtype token is rejected outright.
var mimePattern = regexp.MustCompile(`^[a-z]+/[a-z0-9.+-]+$`)

// imageExtensions are the file extensions accepted when the clipboard holds
// a file:// reference instead of raw image bytes.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// Adapter reads and writes the host clipboard through the external helper.
// Reads are side-effect-free and may overlap; writes are serialized because
// the temp-file handoff and the helper's selection ownership form a brief
// critical section.
type Adapter struct {
	env Environment
	run runner

	writeMu sync.Mutex
}

// New resolves the helper environment once and returns the adapter. When no
// helper binary exists the adapter is still returned; every call then fails
// fast with ErrUnavailable rather than attempting a process launch.
func New(cfg Config) *Adapter {
	env := ResolveEnvironment(cfg)
	return &Adapter{env: env, run: execRunner{env: env}}
}

// Available reports whether a helper binary was found at startup.
func (a *Adapter) Available() bool {
	return a.env.Command != ""
}

// Read returns the current clipboard content. The advertised targets are
// probed first so an expensive image read is only attempted when an image
// representation actually exists; when both image and text are advertised the
// image wins, on the assumption that the last-set content is what the caller
// wants. Dead ends return an empty snapshot with a nil error: xclip exits
// non-zero for an ownerless selection, which is the ordinary empty state,
// not a failure. Non-nil errors are limited to ErrUnavailable and ErrTimeout.
func (a *Adapter) Read() (snapshot.Snapshot, error) {
	if !a.Available() {
		return snapshot.Empty(), ErrUnavailable
	}

	targets := a.queryTargets()

	if hasImageTarget(targets) {
		if snap, ok := a.readImage(); ok {
			return snap, nil
		}
	}

	// Text read, either as the primary path or as fallback after a failed
	// image read. A failed or empty targets probe degrades to a
	// best-effort unrestricted read.
	if targets == "" || selectTextTarget(targets) != "" {
		return a.readText(targets)
	}

	return snapshot.Empty(), nil
}

// queryTargets asks the clipboard which representations it can provide.
// A cheap probe compared to reading and failing; errors just mean "unknown".
func (a *Adapter) queryTargets() string {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutTargets)
	defer cancel()

	out, err := a.run.run(ctx, []string{a.env.Command, "-selection", "clipboard", "-t", "TARGETS", "-o"}, true)
	if err != nil {
		slog.Debug("targets probe failed", "err", err)
		return ""
	}
	return string(out)
}

func (a *Adapter) readImage() (snapshot.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutImage)
	defer cancel()

	out, err := a.run.run(ctx, []string{a.env.Command, "-selection", "clipboard", "-t", snapshot.MimePNG, "-o"}, true)
	if err != nil || len(out) == 0 {
		if err != nil {
			slog.Debug("image read failed, falling back to text", "err", err)
		}
		return snapshot.Empty(), false
	}
	slog.Debug("read image from clipboard", "bytes", len(out))
	return snapshot.Image(snapshot.MimePNG, out), true
}

func (a *Adapter) readText(targets string) (snapshot.Snapshot, error) {
	argv := []string{a.env.Command, "-selection", "clipboard", "-o"}
	if t := selectTextTarget(targets); t != "" {
		argv = []string{a.env.Command, "-selection", "clipboard", "-t", t, "-o"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutText)
	defer cancel()

	out, err := a.run.run(ctx, argv, true)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return snapshot.Empty(), err
		}
		// No selection owner or no such target: xclip reports the empty
		// clipboard as a non-zero exit.
		slog.Debug("text read returned nothing", "err", err)
		return snapshot.Empty(), nil
	}
	content := string(out)
	if content == "" {
		return snapshot.Empty(), nil
	}

	// Clipboard managers often store a file reference rather than raw
	// bytes; resolve image references to the actual pixels.
	if strings.HasPrefix(content, "file://") {
		if snap, ok := imageFromURI(content); ok {
			return snap, nil
		}
	}
	return snapshot.Text(content), nil
}

// Write sets the host clipboard. Content is base64 when alreadyEncoded, plain
// UTF-8 text otherwise. The bytes travel through a world-readable temp file
// so the helper, running as a different user, can open it, and so
// multi-megabyte images don't hit pipe buffer limits. The temp file is
// removed on every exit path.
func (a *Adapter) Write(content, mime string, alreadyEncoded bool) error {
	if !a.Available() {
		return ErrUnavailable
	}
	if !mimePattern.MatchString(mime) {
		return fmt.Errorf("invalid mime type %q", mime)
	}

	var raw []byte
	if alreadyEncoded {
		b, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		raw = b
	} else {
		raw = []byte(content)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	tmp, err := os.CreateTemp("", "clipbridge-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("temp file: %w", err)
	}

	timeout := timeoutText
	if strings.HasPrefix(mime, "image/") {
		timeout = timeoutImage
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shell redirection feeds xclip from the file. Output is not captured:
	// xclip forks to keep owning the selection, and holding its pipes open
	// would block until the selection is replaced.
	line := fmt.Sprintf("%s -selection clipboard -t %s -i < %s", a.env.Command, mime, tmpPath)
	if _, err := a.run.run(ctx, []string{"sh", "-c", line}, false); err != nil {
		slog.Error("clipboard write failed", "mime", mime, "err", err)
		return err
	}
	slog.Debug("clipboard set", "mime", mime, "bytes", len(raw))
	return nil
}

func hasImageTarget(targets string) bool {
	return strings.Contains(targets, "image/png") || strings.Contains(targets, "image/jpeg")
}

// selectTextTarget returns the best advertised text target, or "" when the
// clipboard offers none.
func selectTextTarget(targets string) string {
	for _, t := range textTargets {
		if strings.Contains(targets, t) {
			return t
		}
	}
	return ""
}

// imageFromURI resolves a file:// clipboard value to a binary image snapshot
// when it points at an existing file with a supported image extension.
func imageFromURI(uri string) (snapshot.Snapshot, bool) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || u.Scheme != "file" {
		return snapshot.Empty(), false
	}
	path := u.Path

	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return snapshot.Empty(), false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("clipboard file reference unreadable", "path", path, "err", err)
		return snapshot.Empty(), false
	}

	mime := "image/" + ext[1:]
	if ext == ".jpg" || ext == ".jpeg" {
		mime = "image/jpeg"
	}
	slog.Info("read image via file reference", "path", path, "bytes", len(raw), "mime", mime)
	return snapshot.Image(mime, raw), true
}
