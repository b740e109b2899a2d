package codex

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// DefaultMaxRetries is the number of extra attempts after the first one.
const DefaultMaxRetries = 2

const (
	rateLimitDelay = 60 * time.Second
	timeoutDelay   = 10 * time.Second
	linearDelay    = 5 * time.Second
	timeoutGrowth  = 1.5
)

// ExecWithRetry runs Exec up to maxRetries+1 times. Spawn failures are
// returned immediately. Other failures back off by kind: rate limits wait a
// minute, timeouts wait ten seconds and grow the next timeout by half, empty
// output retries at once, anything else waits five seconds per attempt.
func (c *Client) ExecWithRetry(ctx context.Context, prompt string, opts ExecOptions, maxRetries int) (Result, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var lastErr *Error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptOpts := opts
		attemptOpts.Timeout = timeout

		res, err := c.exec(ctx, prompt, attemptOpts)
		if err == nil && strings.TrimSpace(res.Content) == "" {
			err = &Error{Code: CodeEmptyResponse, Message: "empty response from codex"}
		}
		if err == nil {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}

		var cerr *Error
		if !errors.As(err, &cerr) {
			cerr = &Error{Code: CodeExitError, Message: err.Error(), Err: err}
		}
		lastErr = cerr
		if cerr.Code == CodeSpawnError {
			return Result{}, cerr
		}

		c.logger.Warn().
			Str("code", string(cerr.Code)).
			Int("attempt", attempt+1).
			Int("max_attempts", maxRetries+1).
			Err(cerr).
			Msg("codex: attempt failed")

		if attempt == maxRetries {
			break
		}
		var delay time.Duration
		switch cerr.Code {
		case CodeRateLimit:
			delay = rateLimitDelay
		case CodeTimeout:
			delay = timeoutDelay
			timeout = time.Duration(math.Round(float64(timeout) * timeoutGrowth))
		case CodeEmptyResponse:
			delay = 0
		default:
			delay = linearDelay * time.Duration(attempt+1)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
	}
	return Result{}, lastErr
}
