// Package retry implements the uniform retry-with-UPnP-2xx-success policy,
// so that a 2xx response smuggled inside an error string is never mistaken
// for a real failure. Its callers are the engine's stop → setURI → play
// pipeline and the playlist manager's fetch after a WebSocket UPDATE
// frame; other network calls (the polling loop, the WebSocket reconnect
// loop, the status poller and the FFI controls) do not go through it.
package retry

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
)

// BaseDelay is the fixed backoff between attempts. Exponential backoff is
// deliberately not used: a consumer DLNA renderer's transient state clears
// on the next poll, so a longer wait only delays recovery.
const BaseDelay = 500 * time.Millisecond

var threeDigitRun = regexp.MustCompile(`\d{3}`)

// ExtractStatusCode returns the first three consecutive digits found in
// msg, if any; they may be the start of a longer run of digits. SOAP/HTTP client errors in this codebase carry their status
// code only in string form (wrapped by lower layers), so this is how the
// retry wrapper recovers it.
func ExtractStatusCode(msg string) (int, bool) {
	match := threeDigitRun.FindString(msg)
	if match == "" {
		return 0, false
	}
	code, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return code, true
}

// IsSuccessCode reports whether code is a 2xx HTTP status.
func IsSuccessCode(code int) bool {
	return code/100 == 2
}

// ShouldTreatAsSuccess inspects an error's message for an embedded 2xx
// status code. Many consumer renderers reply to a SOAP action with a 2xx
// status and an empty or malformed body, which surfaces up the stack as a
// parse error rather than a clean success; this recognizes that case.
func ShouldTreatAsSuccess(err error) bool {
	if err == nil {
		return false
	}
	code, ok := ExtractStatusCode(err.Error())
	if !ok {
		return false
	}
	return IsSuccessCode(code)
}

// Op is a retryable operation. The name passed alongside it to Forever or
// Bounded is used only for log lines.
type Op[T any] func(ctx context.Context) (T, error)

// Forever retries op indefinitely until it succeeds, the context is
// cancelled, or its error carries a 2xx status code (treated as success
// with a zero value). This is the variant used by the engine's
// stop → setURI → play pipeline and the playlist manager's WebSocket
// UPDATE handling.
func Forever[T any](ctx context.Context, name string, op Op[T]) (T, error) {
	return Bounded(ctx, name, 0, op)
}

// Bounded retries op up to maxAttempts times (0 means unlimited). On each
// failure it first checks for an embedded 2xx status (returning
// immediately with success if found); otherwise it logs at warn and sleeps
// BaseDelay before the next attempt, or, once maxAttempts is reached, logs
// at error and returns the last error. On ctx cancellation it returns
// ctx.Err() immediately.
func Bounded[T any](ctx context.Context, name string, maxAttempts int, op Op[T]) (T, error) {
	var zero T
	for attempt := 1; maxAttempts == 0 || attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if ShouldTreatAsSuccess(err) {
			return zero, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if maxAttempts != 0 && attempt == maxAttempts {
			loglevel.Errorf("[retry] %s: giving up after %d attempts: %v", name, attempt, err)
			return zero, err
		}
		loglevel.Warnf("[retry] %s: attempt %d failed, retrying in %s: %v", name, attempt, BaseDelay, err)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(BaseDelay):
		}
	}
	return zero, nil
}
