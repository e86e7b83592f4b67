package gateway

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/time/rate"

	"github.com/yshimizu/gh-commit-report/internal/domain"
)

// limitState is the position of a request in the primary rate-limit cycle.
// A request gets exactly one pause: ready -> paused -> retried. A second
// limit response terminates the request with a fatal RateLimitError.
type limitState int

const (
	limitReady limitState = iota
	limitPaused
	limitRetried
)

// If the limit response carries no usable reset timestamp, pause this long.
const defaultLimitPause = 30 * time.Second

// requester executes API calls with client-side pacing, bounded retries
// for transport errors, and the single-pause rate-limit cycle. The clock
// and sleep functions are injectable so tests can drive the cycle without
// real waits.
type requester struct {
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newRequester(requestsPerMinute, maxRetries int, backoff time.Duration, logger *log.Logger) *requester {
	return &requester{
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// do runs call until it succeeds or classification says to stop. The
// resource string names what was being fetched so fatal errors identify
// their origin.
func (r *requester) do(ctx context.Context, resource string, call func() error) error {
	state := limitReady
	attempts := 0
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call()
		if err == nil {
			return nil
		}

		switch {
		case isRateLimited(err):
			reset := limitReset(err, r.now())
			if state == limitRetried {
				return &domain.RateLimitError{Resource: resource, Reset: reset, Err: err}
			}
			state = limitPaused
			wait := reset.Sub(r.now())
			if wait <= 0 {
				wait = time.Second
			}
			r.logger.Printf("rate limited fetching %s, pausing %s until reset", resource, wait)
			if serr := r.sleep(ctx, wait); serr != nil {
				return serr
			}
			state = limitRetried

		case isAuthRejected(err):
			return &domain.AuthError{Resource: resource, Err: err}

		case isNotFound(err):
			return &domain.NotFoundError{Resource: resource, Err: err}

		default:
			attempts++
			if attempts >= r.maxRetries || ctx.Err() != nil {
				return &domain.NetworkError{Resource: resource, Attempts: attempts, Err: err}
			}
			wait := time.Duration(attempts) * r.backoff
			r.logger.Printf("transient error fetching %s (attempt %d/%d), retrying in %s: %v",
				resource, attempts, r.maxRetries, wait, err)
			if serr := r.sleep(ctx, wait); serr != nil {
				return serr
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRateLimited detects primary and secondary limit responses: go-github's
// typed errors, HTTP 429, and 403 with an exhausted remaining-quota header.
func isRateLimited(err error) bool {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var able *github.AbuseRateLimitError
	if errors.As(err, &able) {
		return true
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case 429:
			return true
		case 403:
			return er.Response.Header.Get("X-RateLimit-Remaining") == "0"
		}
	}
	return false
}

// limitReset extracts the reset timestamp from a limit response, falling
// back to a fixed pause when the metadata is missing.
func limitReset(err error, now time.Time) time.Time {
	var rle *github.RateLimitError
	if errors.As(err, &rle) && !rle.Rate.Reset.IsZero() {
		return rle.Rate.Reset.Time
	}
	var able *github.AbuseRateLimitError
	if errors.As(err, &able) && able.RetryAfter != nil {
		return now.Add(*able.RetryAfter)
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		if v := er.Response.Header.Get("Retry-After"); v != "" {
			if secs, cerr := strconv.Atoi(v); cerr == nil && secs > 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
		if v := er.Response.Header.Get("X-RateLimit-Reset"); v != "" {
			if epoch, cerr := strconv.ParseInt(v, 10, 64); cerr == nil && epoch > 0 {
				return time.Unix(epoch, 0)
			}
		}
	}
	return now.Add(defaultLimitPause)
}

// isAuthRejected detects 401, and 403 responses that are not rate limits.
// The GraphQL client surfaces flat errors, so the status has to be read
// from the message there.
func isAuthRejected(err error) bool {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case 401:
			return true
		case 403:
			return er.Response.Header.Get("X-RateLimit-Remaining") != "0"
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "401 Unauthorized") ||
		strings.Contains(msg, "403 Forbidden") ||
		strings.Contains(msg, "Bad credentials")
}

func isNotFound(err error) bool {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		code := er.Response.StatusCode
		return code == 404 || code == 410
	}
	// The GraphQL API reports missing organizations inside the error body.
	return strings.Contains(err.Error(), "Could not resolve to an Organization")
}
