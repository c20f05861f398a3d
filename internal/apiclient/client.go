package apiclient

import (
	"context"
	"net/http"
	"time"

	"wellbook/config"
)

// Client bundles the resilient executor and the payment reconciliation
// poller behind one construction point for front-end embedders.
type Client struct {
	Executor *Executor
	Poller   *Poller
}

func NewClient(cfg config.ClientConfig, store CredentialStore) *Client {
	httpClient := &http.Client{}
	refresher := NewRefreshCoordinator(store, NewHTTPExchange(httpClient, cfg.BaseURL+cfg.RefreshPath))

	exec := NewExecutor(cfg.BaseURL, store, refresher)
	exec.client = httpClient
	if cfg.MaxAttempts > 0 {
		exec.maxAttempts = cfg.MaxAttempts
	}
	if cfg.RequestTimeoutSeconds > 0 {
		exec.attemptTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}

	interval := time.Duration(cfg.PollIntervalMillis) * time.Millisecond
	return &Client{
		Executor: exec,
		Poller:   NewPoller(exec, interval),
	}
}

func (c *Client) Execute(ctx context.Context, req Request, opts ...Option) (*Response, error) {
	return c.Executor.Execute(ctx, req, opts...)
}

// StartPaymentPoll begins reconciling the payment for bookingID. The returned
// handle must be cancelled on screen teardown.
func (c *Client) StartPaymentPoll(ctx context.Context, bookingID string, onTerminal TerminalFunc) (*Poll, error) {
	return c.Poller.Start(ctx, bookingID, onTerminal)
}
