package blacklist

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory is a process-local revocation set for single-instance and dev setups.
type Memory struct {
	c *cache.Cache
}

func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (m *Memory) Revoke(_ context.Context, jti string, accountID uint, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	m.c.Set(jti, accountID, ttl)
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.c.Get(jti)
	return ok, nil
}
