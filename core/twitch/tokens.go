package twitch

import (
	"context"
	"sync"
)

// TokenSource resolves the current refresh token for a broadcaster and
// persists rotated tokens.
type TokenSource interface {
	RefreshTokenFor(ctx context.Context, broadcasterID string) (string, error)
	StoreRefreshToken(ctx context.Context, broadcasterID, refreshToken string) error
}

// TokenCache memoizes access tokens per broadcaster. It is scoped to one
// sync cycle: build a fresh cache per cycle so expired tokens never leak
// across runs.
type TokenCache struct {
	client *Client
	source TokenSource

	mu     sync.Mutex
	tokens map[string]string
}

func NewTokenCache(client *Client, source TokenSource) *TokenCache {
	return &TokenCache{
		client: client,
		source: source,
		tokens: map[string]string{},
	}
}

// AccessToken returns a cached access token, refreshing through the OAuth
// endpoint on first use. Rotated refresh tokens are written back through
// the source.
func (tc *TokenCache) AccessToken(ctx context.Context, broadcasterID string) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if token, ok := tc.tokens[broadcasterID]; ok {
		return token, nil
	}

	refresh, err := tc.source.RefreshTokenFor(ctx, broadcasterID)
	if err != nil {
		return "", err
	}
	reply, err := tc.client.RefreshToken(ctx, refresh)
	if err != nil {
		return "", err
	}
	if reply.RefreshToken != "" && reply.RefreshToken != refresh {
		if err := tc.source.StoreRefreshToken(ctx, broadcasterID, reply.RefreshToken); err != nil {
			return "", err
		}
	}
	tc.tokens[broadcasterID] = reply.AccessToken
	return reply.AccessToken, nil
}
