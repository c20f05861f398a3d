package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc performs one refresh-token exchange against the auth endpoint.
type RefreshFunc func(ctx context.Context, refreshToken string) (*Credential, error)

// RefreshCoordinator guarantees at most one outstanding refresh exchange no
// matter how many concurrent requests observe an expired token. Concurrent
// callers join the in-flight exchange and all receive its outcome.
type RefreshCoordinator struct {
	store    CredentialStore
	exchange RefreshFunc
	group    singleflight.Group
}

func NewRefreshCoordinator(store CredentialStore, exchange RefreshFunc) *RefreshCoordinator {
	return &RefreshCoordinator{store: store, exchange: exchange}
}

// Refresh returns a fresh credential. On success the credential has already
// been written to the store; on failure the store has been cleared and every
// joined caller receives ErrSessionExpired. A refresh failure is fatal for
// the session and is never retried here.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (*Credential, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		cred, err := c.store.Get(ctx)
		if err != nil {
			return nil, err
		}
		if cred == nil || cred.RefreshToken == "" {
			return nil, ErrSessionExpired
		}

		fresh, err := c.exchange(ctx, cred.RefreshToken)
		if err != nil {
			// A cancelled exchange is not a rejected session: keep the
			// credential so a later request can retry the refresh.
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			log.Printf("token refresh failed: %v", err)
			if clearErr := c.store.Clear(ctx); clearErr != nil {
				log.Printf("clear credentials after failed refresh: %v", clearErr)
			}
			return nil, ErrSessionExpired
		}

		if err := c.store.Set(ctx, *fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credential), nil
}

// NewHTTPExchange returns a RefreshFunc performing the refresh-token grant
// against refreshURL. A non-200 response is a failed exchange.
func NewHTTPExchange(client *http.Client, refreshURL string) RefreshFunc {
	return func(ctx context.Context, refreshToken string) (*Credential, error) {
		body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return nil, fmt.Errorf("marshal refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("refresh request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read refresh response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("refresh rejected: status %d: %s", resp.StatusCode, respBody)
		}

		var cred Credential
		if err := json.Unmarshal(respBody, &cred); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		if cred.AccessToken == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}
		return &cred, nil
	}
}
