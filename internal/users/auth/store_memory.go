// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
)

// # In-Memory Stores
//
// Mutex-guarded implementations of the store contracts, used by the test
// suite and for running the API without external infrastructure.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by ID
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*User)}
}

func (repository *MemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, ok := repository.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (repository *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, user := range repository.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *MemoryUserRepository) Create(ctx context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	copied := *user
	repository.users[user.ID] = &copied
	return nil
}

type memoryToken struct {
	id        string
	expiresAt time.Time
	createdAt time.Time
}

type MemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string][]memoryToken // keyed by user ID, newest first
}

func NewMemoryRefreshTokenRepository() *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{tokens: make(map[string][]memoryToken)}
}

func (repository *MemoryRefreshTokenRepository) ActiveIDs(ctx context.Context, userID string) ([]string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var ids []string
	for _, token := range repository.tokens[userID] {
		ids = append(ids, token.id)
	}
	return ids, nil
}

func (repository *MemoryRefreshTokenRepository) Add(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	entry := memoryToken{id: tokenID, expiresAt: expiresAt, createdAt: time.Now()}
	set := append([]memoryToken{entry}, repository.tokens[userID]...)
	if len(set) > MaxActiveRefreshTokens {
		set = set[:MaxActiveRefreshTokens]
	}
	repository.tokens[userID] = set
	return nil
}

func (repository *MemoryRefreshTokenRepository) Remove(ctx context.Context, userID, tokenID string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	set := repository.tokens[userID]
	for index, token := range set {
		if token.id == tokenID {
			repository.tokens[userID] = append(set[:index], set[index+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (repository *MemoryRefreshTokenRepository) RemoveAll(ctx context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.tokens, userID)
	return nil
}

type MemoryRevocationRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry of the deny entry
}

func NewMemoryRevocationRepository() *MemoryRevocationRepository {
	return &MemoryRevocationRepository{revoked: make(map[string]time.Time)}
}

func (repository *MemoryRevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (repository *MemoryRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	expiry, ok := repository.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(repository.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
