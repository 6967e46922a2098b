package xclip

import (
	"bufio"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	defaultDisplay   = ":0"
	defaultEnvFile   = "/run/user/1000/gamescope-environment"
	defaultAuthority = "/home/deck/.Xauthority"
)

// systemPaths is the probe order for a system-installed xclip, tried after
// the bundled binary and before a plain $PATH lookup.
var systemPaths = []string{"/usr/bin/xclip", "/usr/local/bin/xclip"}

// Config controls environment resolution. Zero values select the
// conventional locations.
type Config struct {
	// BundledDir is a directory holding a bundled xclip binary, preferred
	// over any system install. Empty means no bundled binary.
	BundledDir string

	// User is the identity the helper runs under (via sudo). Empty means
	// the helper is invoked directly as the current user.
	User string

	// EnvFile is the runtime environment descriptor to extract DISPLAY
	// from. Defaults to the gamescope session file.
	EnvFile string

	// Authority is the Xauthority path handed to the helper if it exists.
	Authority string
}

// Environment is the resolved execution context for the clipboard helper.
// It is computed once at adapter construction and never mutated; re-resolving
// per call is deliberately avoided.
type Environment struct {
	Command   string // absolute path to xclip, "" when none was found
	Display   string
	Authority string // "" when no authority file exists
	User      string // "" when no user switch is needed
}

// ResolveEnvironment inspects the session descriptor file, probes for the
// helper binary, and returns the immutable execution context.
func ResolveEnvironment(cfg Config) Environment {
	env := Environment{Display: defaultDisplay, User: cfg.User}

	envFile := cfg.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if d, ok := displayFromFile(envFile); ok {
		env.Display = d
		slog.Info("session display resolved", "display", d, "from", envFile)
	}

	authority := cfg.Authority
	if authority == "" {
		authority = defaultAuthority
	}
	if _, err := os.Stat(authority); err == nil {
		env.Authority = authority
	}

	env.Command = findCommand(cfg.BundledDir)
	if env.Command == "" {
		slog.Error("xclip not found, clipboard access disabled")
	} else {
		slog.Info("clipboard helper resolved",
			"command", env.Command,
			"display", env.Display,
			"user", env.User,
		)
	}
	return env
}

// displayFromFile extracts the DISPLAY value from a session environment file
// of KEY=value lines.
func displayFromFile(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "DISPLAY="); ok {
			return v, true
		}
	}
	return "", false
}

// findCommand locates the xclip binary, preferring a bundled copy. A bundled
// binary that lost its execute bit (plugin stores often strip permissions)
// gets it restored.
func findCommand(bundledDir string) string {
	if bundledDir != "" {
		p := filepath.Join(bundledDir, "xclip")
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			if fi.Mode().Perm()&0o100 == 0 {
				if err := os.Chmod(p, fi.Mode().Perm()|0o111); err != nil {
					slog.Error("cannot make bundled xclip executable", "path", p, "err", err)
				} else {
					slog.Debug("restored execute bit on bundled xclip", "path", p)
				}
			}
			return p
		}
	}
	for _, p := range systemPaths {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0 {
			return p
		}
	}
	if p, err := exec.LookPath("xclip"); err == nil {
		return p
	}
	return ""
}
