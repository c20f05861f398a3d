package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"wellbook/config"
	"wellbook/internal/apiclient"
)

// RedisCredentialStore persists the access/refresh token pair under a single
// key. The credential is written only by login or a successful refresh.
type RedisCredentialStore struct {
	client *redis.Client
}

func NewRedisCredentialStore(cfg config.RedisConfig) *RedisCredentialStore {
	return &RedisCredentialStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (s *RedisCredentialStore) Get(ctx context.Context) (*apiclient.Credential, error) {
	data, err := s.client.Get(ctx, credentialKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, &apiclient.StorageError{Op: "get", Err: err}
	}

	var cred apiclient.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, &apiclient.StorageError{Op: "get", Err: err}
	}
	return &cred, nil
}

func (s *RedisCredentialStore) Set(ctx context.Context, cred apiclient.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return &apiclient.StorageError{Op: "set", Err: err}
	}
	if err := s.client.Set(ctx, credentialKey(), payload, 0).Err(); err != nil {
		return &apiclient.StorageError{Op: "set", Err: err}
	}
	return nil
}

func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, credentialKey()).Err(); err != nil {
		return &apiclient.StorageError{Op: "clear", Err: err}
	}
	return nil
}

func credentialKey() string {
	return "auth:credential"
}

var _ apiclient.CredentialStore = (*RedisCredentialStore)(nil)
