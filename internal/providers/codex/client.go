package codex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/metrics"
)

const (
	DefaultBinary  = "codex"
	DefaultModel   = "gpt-5.2"
	DefaultTimeout = 180 * time.Second

	// killGrace bounds how long Wait blocks on output pipes after SIGTERM.
	killGrace = 5 * time.Second
)

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	debugLine  = regexp.MustCompile(`(?m)^(debug|warn|info):.*$`)
)

// Options configures the generation client.
type Options struct {
	Binary string
	Model  string
	Logger *infra.Logger
}

// ExecOptions tunes a single invocation. Zero values select client defaults.
type ExecOptions struct {
	Model    string
	Timeout  time.Duration
	JSONMode bool
}

// Result is the normalized output of one successful invocation.
type Result struct {
	Content  string
	ExitCode int
	Duration time.Duration
}

// Client runs the external generation binary as a subprocess.
type Client struct {
	binary string
	model  string
	logger *infra.Logger

	exec  func(ctx context.Context, prompt string, opts ExecOptions) (Result, error)
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client. The binary is resolved through PATH at call time.
func NewClient(opts Options) *Client {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = DefaultBinary
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	c := &Client{binary: binary, model: model, logger: logger}
	c.exec = c.Exec
	c.sleep = sleepContext
	return c
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

// Exec runs `<binary> exec -m <model> --stdin [--json]` once, feeding prompt on
// stdin. Failures are returned as *Error; cancellation of ctx is returned as is.
func (c *Client) Exec(ctx context.Context, prompt string, opts ExecOptions) (Result, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	args := []string{"exec", "-m", model, "--stdin"}
	if opts.JSONMode {
		args = append(args, "--json")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = killGrace
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		cerr := &Error{Code: CodeSpawnError, Message: fmt.Sprintf("codex exec spawn failed: %v", err), Err: err}
		metrics.ObserveGeneration(string(cerr.Code), 0)
		return Result{}, cerr
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		cerr := &Error{Code: CodeTimeout, Message: fmt.Sprintf("codex exec timed out after %dms", timeout.Milliseconds())}
		metrics.ObserveGeneration(string(cerr.Code), elapsed)
		return Result{}, cerr
	}
	if waitErr != nil {
		cerr := classifyExit(waitErr, stderr.String())
		metrics.ObserveGeneration(string(cerr.Code), elapsed)
		return Result{}, cerr
	}

	metrics.ObserveGeneration(metrics.CodeOK, elapsed)
	c.logger.Debug().
		Str("model", model).
		Dur("duration", elapsed).
		Int("stdout_bytes", stdout.Len()).
		Msg("codex: exec finished")
	return Result{Content: NormalizeOutput(stdout.String()), ExitCode: 0, Duration: elapsed}, nil
}

func classifyExit(waitErr error, stderr string) *Error {
	msg := strings.TrimSpace(stderr)
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "429") || strings.Contains(lower, "rate") {
		return &Error{Code: CodeRateLimit, ExitCode: exitCode, Message: "Rate limited: " + msg, Err: waitErr}
	}
	return &Error{
		Code:     CodeExitError,
		ExitCode: exitCode,
		Message:  fmt.Sprintf("codex exec failed with code %d: %s", exitCode, msg),
		Err:      waitErr,
	}
}

// NormalizeOutput strips terminal colour codes and log-prefixed lines, trims
// the result and puts it in NFC so Hangul compares byte-for-byte.
func NormalizeOutput(raw string) string {
	out := ansiEscape.ReplaceAllString(raw, "")
	out = debugLine.ReplaceAllString(out, "")
	return norm.NFC.String(strings.TrimSpace(out))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
