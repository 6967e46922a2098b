package xclip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Helper invocation timeouts. Image reads get a much longer window because
// multi-megabyte payloads cross the X selection protocol one chunk at a time.
const (
	timeoutTargets = 10 * time.Second
	timeoutText    = 15 * time.Second
	timeoutImage   = 45 * time.Second
)

var (
	// ErrUnavailable means no usable xclip binary was found at startup.
	// Permanent until restart; every adapter call fails fast with it.
	ErrUnavailable = errors.New("clipboard utility unavailable")

	// ErrTimeout means the helper exceeded its allotted window.
	ErrTimeout = errors.New("clipboard helper timed out")

	// ErrEncoding means a write was handed malformed base64 content.
	ErrEncoding = errors.New("malformed base64 content")
)

// runner executes one helper invocation. Split out as an interface so tests
// can substitute canned process results.
type runner interface {
	// run executes argv under the resolved environment. When capture is
	// false both output streams are discarded and the returned bytes are
	// nil even on success.
	run(ctx context.Context, argv []string, capture bool) ([]byte, error)
}

// execRunner runs the helper as a real subprocess, switching to the session
// user via sudo when the environment calls for one. Privilege elevation does
// not preserve the calling environment, so DISPLAY and XAUTHORITY travel as
// explicit argv rather than inherited state.
type execRunner struct {
	env Environment
}

func (r execRunner) run(ctx context.Context, argv []string, capture bool) ([]byte, error) {
	var cmd *exec.Cmd
	if r.env.User != "" {
		full := []string{"-u", r.env.User, "env", "DISPLAY=" + r.env.Display}
		if r.env.Authority != "" {
			full = append(full, "XAUTHORITY="+r.env.Authority)
		}
		full = append(full, argv...)
		cmd = exec.CommandContext(ctx, "sudo", full...)
	} else {
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Env = append(os.Environ(), "DISPLAY="+r.env.Display)
		if r.env.Authority != "" {
			cmd.Env = append(cmd.Env, "XAUTHORITY="+r.env.Authority)
		}
	}

	var stdout, stderr bytes.Buffer
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, argv[0])
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("helper failed: %s", msg)
	}
	return stdout.Bytes(), nil
}
