package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/marlonsouza/magic-pipe/internal/backend"
	"github.com/marlonsouza/magic-pipe/internal/cache"
	"github.com/marlonsouza/magic-pipe/internal/chunk"
)

// Status classifies the outcome of one review request.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ReviewResult is the outcome for exactly one ReviewRequest.
type ReviewResult struct {
	RequestID  string
	FilePath   string
	ChunkIndex int
	Status     Status
	Body       string
	Err        string
}

// Options tunes the worker pool and retry policy.
type Options struct {
	// MaxInFlight bounds concurrent backend calls. Defaults to 4, small
	// enough for typical provider rate limits.
	MaxInFlight int
	// MaxAttempts is the total number of tries per request, first call
	// included. Defaults to 3.
	MaxAttempts int
	// CallTimeout bounds a single backend call. Defaults to 60s.
	CallTimeout time.Duration
	// RunDeadline bounds the whole dispatch; zero means no deadline.
	// Requests still pending when it expires become failed results.
	RunDeadline time.Duration
	// InitialBackoff seeds the exponential backoff. Defaults to 500ms;
	// tests shrink it.
	InitialBackoff time.Duration
	// Cache, when non-nil and enabled, is consulted before each call and
	// filled on success. Model feeds the cache key.
	Cache *cache.Cache
	Model string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 60 * time.Second
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Run dispatches every request and returns one result per request, in
// request order. The error is non-nil only for fatal conditions that abort
// the run; per-request failures are carried in the results.
func Run(ctx context.Context, requests []chunk.ReviewRequest, be backend.Backend, opts Options) ([]ReviewResult, error) {
	opts = opts.withDefaults()

	if opts.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.RunDeadline)
		defer cancel()
	}

	results := make([]ReviewResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxInFlight)

	for i, req := range requests {
		g.Go(func() error {
			// The group context dies on a fatal error or the run
			// deadline; either way this request never starts.
			if err := gctx.Err(); err != nil {
				results[i] = abortedResult(req, err)
				return nil
			}

			body, err := sendWithRetry(gctx, be, req, opts)
			switch {
			case err == nil:
				results[i] = ReviewResult{
					RequestID:  req.ID,
					FilePath:   req.FilePath,
					ChunkIndex: req.ChunkIndex,
					Status:     StatusOK,
					Body:       body,
				}
				return nil
			case backend.IsFatal(err):
				results[i] = failedResult(req, err)
				opts.Logger.Error("fatal backend error, aborting run",
					"file", req.FilePath, "chunk", req.ChunkIndex, "error", err)
				return err
			default:
				results[i] = failedResult(req, err)
				opts.Logger.Warn("chunk review failed",
					"file", req.FilePath, "chunk", req.ChunkIndex, "error", err)
				return nil
			}
		})
	}

	err := g.Wait()
	return results, err
}

// sendWithRetry performs one request with per-attempt timeout and
// exponential backoff on transient errors.
func sendWithRetry(ctx context.Context, be backend.Backend, req chunk.ReviewRequest, opts Options) (string, error) {
	key := cache.Key(be.Name(), opts.Model, req.Prompt)
	if opts.Cache != nil {
		if body, ok := opts.Cache.Get(key); ok {
			opts.Logger.Debug("cache hit", "file", req.FilePath, "chunk", req.ChunkIndex)
			return body, nil
		}
	}

	var body string
	attempt := 0
	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
		defer cancel()

		var err error
		body, err = be.Send(callCtx, req)
		if err == nil {
			return nil
		}
		if backend.IsFatal(err) {
			return backoff.Permanent(err)
		}
		opts.Logger.Debug("retryable backend error",
			"file", req.FilePath, "chunk", req.ChunkIndex, "attempt", attempt, "error", err)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.InitialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(opts.MaxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, body); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		}
	}
	return body, nil
}

func failedResult(req chunk.ReviewRequest, err error) ReviewResult {
	return ReviewResult{
		RequestID:  req.ID,
		FilePath:   req.FilePath,
		ChunkIndex: req.ChunkIndex,
		Status:     StatusFailed,
		Err:        err.Error(),
	}
}

// abortedResult records a request that never started. Deadline expiry is a
// failure with a timeout error; cancellation after a fatal error elsewhere
// is a skip.
func abortedResult(req chunk.ReviewRequest, ctxErr error) ReviewResult {
	r := ReviewResult{
		RequestID:  req.ID,
		FilePath:   req.FilePath,
		ChunkIndex: req.ChunkIndex,
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		r.Status = StatusFailed
		r.Err = "run deadline exceeded before this chunk was reviewed"
	} else {
		r.Status = StatusSkipped
		r.Err = "run aborted before this chunk was reviewed"
	}
	return r
}
