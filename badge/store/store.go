// Package store holds issued credentials behind a repository interface so
// services never depend on process-wide state.
package store

import (
	"errors"
	"sync"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// CredentialStore is the repository for issued credentials. Credentials are
// immutable; Save of an already-known id is rejected rather than updated.
type CredentialStore interface {
	Save(cred *model.Credential) error
	Get(id string) (*model.Credential, bool)
	GetByLedgerRef(ref string) (*model.Credential, bool)
	List() []*model.Credential
}

// MemoryStore manages credentials in a thread-safe in-memory map.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*model.Credential
	byRef map[string]*model.Credential
}

// NewMemoryStore initializes an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*model.Credential),
		byRef: make(map[string]*model.Credential),
	}
}

// Save adds an issued credential to the store.
func (s *MemoryStore) Save(cred *model.Credential) error {
	if cred == nil || cred.ID == "" {
		return errors.New("credential and credential id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[cred.ID]; exists {
		return errors.New("credential already stored; issue a superseding credential instead")
	}
	s.byID[cred.ID] = cred
	if cred.LedgerRef != "" {
		s.byRef[cred.LedgerRef] = cred
	}
	return nil
}

// Get retrieves a credential by id.
func (s *MemoryStore) Get(id string) (*model.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byID[id]
	return cred, ok
}

// GetByLedgerRef retrieves a credential by its ledger reference.
func (s *MemoryStore) GetByLedgerRef(ref string) (*model.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byRef[ref]
	return cred, ok
}

// List returns all stored credentials.
func (s *MemoryStore) List() []*model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Credential, 0, len(s.byID))
	for _, cred := range s.byID {
		out = append(out, cred)
	}
	return out
}
