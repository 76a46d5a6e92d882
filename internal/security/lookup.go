package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAccountNotFound indicates the token subject no longer resolves.
	ErrAccountNotFound = errors.New("security: account not found")
	// ErrAccountDisabled indicates the account exists but is disabled.
	ErrAccountDisabled = errors.New("security: account disabled")
)

// AccountSource resolves a username to its current account snapshot. It
// returns ErrAccountNotFound when no such account exists.
type AccountSource interface {
	FindByUsername(ctx context.Context, username string) (Principal, error)
}

// Lookup resolves usernames to principals through a Redis cache keyed by
// username. Negative results are never cached so a just-created account is
// visible on its first login. Account-mutating operations must call Evict for
// the affected username in the same transaction.
type Lookup struct {
	source AccountSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLookup constructs a Lookup. A nil client disables caching.
func NewLookup(source AccountSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Lookup {
	return &Lookup{source: source, client: client, ttl: ttl, logger: logger}
}

func accountKey(username string) string {
	return "account:" + username
}

// Resolve returns the principal for a username, serving from cache when
// possible. Disabled accounts resolve (they are real snapshots); rejecting
// them is the caller's decision.
func (l *Lookup) Resolve(ctx context.Context, username string) (Principal, error) {
	if l.client != nil {
		payload, err := l.client.Get(ctx, accountKey(username)).Bytes()
		if err == nil {
			var p Principal
			if err := json.Unmarshal(payload, &p); err == nil {
				return p, nil
			}
			// Corrupt entry, fall through to the source.
			_ = l.client.Del(ctx, accountKey(username)).Err()
		} else if err != redis.Nil && l.logger != nil {
			l.logger.Warn("account cache read", slog.Any("error", err))
		}
	}

	p, err := l.source.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, err
	}

	if l.client != nil {
		raw, err := json.Marshal(p)
		if err == nil {
			if err := l.client.Set(ctx, accountKey(username), raw, l.ttl).Err(); err != nil && l.logger != nil {
				l.logger.Warn("account cache write", slog.Any("error", err))
			}
		}
	}
	return p, nil
}

// Evict removes the cached entry for a username.
func (l *Lookup) Evict(ctx context.Context, username string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if err := l.client.Del(ctx, accountKey(username)).Err(); err != nil {
		return fmt.Errorf("security: evict %s: %w", username, err)
	}
	return nil
}
