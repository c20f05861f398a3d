package apiclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 10 * time.Second

	backoffBaseMillis = 1000
	backoffCapMillis  = 30000
)

// BackoffDelay computes the delay before retry number attempt (counted from
// 1): min(1000 * 2^attempt, 30000) milliseconds.
func BackoffDelay(attempt int) time.Duration {
	ms := backoffBaseMillis << attempt
	if ms > backoffCapMillis {
		ms = backoffCapMillis
	}
	return time.Duration(ms) * time.Millisecond
}

// Request is one logical API call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

type Option func(*callOptions)

type callOptions struct {
	maxAttempts int
}

func WithMaxAttempts(n int) Option {
	return func(o *callOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// Executor wraps a logical HTTP call with credential attachment, bounded
// retry with exponential backoff, and 401-triggered refresh-and-replay.
type Executor struct {
	baseURL        string
	client         *http.Client
	store          CredentialStore
	refresher      *RefreshCoordinator
	maxAttempts    int
	attemptTimeout time.Duration

	// sleep waits out a backoff delay; tests swap it to avoid real sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(baseURL string, store CredentialStore, refresher *RefreshCoordinator) *Executor {
	return &Executor{
		baseURL:        baseURL,
		client:         &http.Client{},
		store:          store,
		refresher:      refresher,
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
		sleep:          sleepCtx,
	}
}

// Execute runs the request until success, a non-retryable failure, or
// exhausted attempts. It fails with *NetworkError, *HTTPError,
// ErrSessionExpired or *StorageError; it never silently swallows a terminal
// failure.
func (e *Executor) Execute(ctx context.Context, req Request, opts ...Option) (*Response, error) {
	call := callOptions{maxAttempts: e.maxAttempts}
	for _, opt := range opts {
		opt(&call)
	}

	replayed := false
	var lastErr error
	for attempt := 1; attempt <= call.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, BackoffDelay(attempt-1)); err != nil {
				return nil, &NetworkError{Err: err}
			}
		}

		resp, err := e.attempt(ctx, req, attempt)
		if err != nil {
			var serr *StorageError
			if errors.As(err, &serr) {
				return nil, err
			}
			lastErr = &NetworkError{Err: err}
			log.Printf("%s %s attempt %d/%d failed: %v", req.Method, req.Path, attempt, call.maxAttempts, err)
			continue
		}

		// A 401 triggers refresh-and-replay at most once per logical call,
		// so a request that keeps returning 401 cannot loop.
		if resp.Status == http.StatusUnauthorized && !replayed {
			replayed = true
			if _, err := e.refresher.Refresh(ctx); err != nil {
				return nil, err
			}
			resp, err = e.attempt(ctx, req, attempt)
			if err != nil {
				lastErr = &NetworkError{Err: err}
				continue
			}
		}

		if resp.Status >= 200 && resp.Status < 300 {
			return resp, nil
		}

		herr := &HTTPError{Status: resp.Status, Body: resp.Body}
		if !herr.Retryable() {
			return nil, herr
		}
		lastErr = herr
	}

	return nil, lastErr
}

// attempt performs a single HTTP exchange with a fresh credential read and
// its own deadline, independent of retry backoff.
func (e *Executor) attempt(ctx context.Context, req Request, attempt int) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, e.baseURL+req.Path, body)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	cred, err := e.store.Get(attemptCtx)
	if err != nil {
		var serr *StorageError
		if errors.As(err, &serr) {
			return nil, err
		}
		return nil, &StorageError{Op: "get", Err: err}
	}
	if cred != nil && cred.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	}

	started := time.Now()
	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	log.Printf("%s %s attempt %d status=%d in %s", req.Method, req.Path, attempt, httpResp.StatusCode, time.Since(started))

	return &Response{Status: httpResp.StatusCode, Body: respBody, Header: httpResp.Header}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
