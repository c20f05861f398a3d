package apiclient

import (
	"context"
	"sync"
)

// Credential is the current access/refresh token pair. It is written only by
// a successful login or a successful refresh and destroyed on logout or an
// irrecoverable refresh failure.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore persists the single credential. Get returns (nil, nil) when
// no credential is stored; failures surface as *StorageError.
type CredentialStore interface {
	Get(ctx context.Context) (*Credential, error)
	Set(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// MemoryCredentialStore keeps the credential in process memory. Used in tests
// and in embedded setups without a durable store.
type MemoryCredentialStore struct {
	mu   sync.Mutex
	cred *Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Get(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, nil
	}
	cred := *s.cred
	return &cred, nil
}

func (s *MemoryCredentialStore) Set(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	return nil
}

func (s *MemoryCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)
