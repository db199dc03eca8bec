package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks invalidated token IDs.
type Revoker interface {
	Revoke(ctx context.Context, userID int64, exceptJTI string) error
	IsRevoked(ctx context.Context, userID int64, jti string, issuedAt time.Time) (bool, error)
}

// RevocationStore invalidates tokens in redis. Rather than listing every
// outstanding JTI, it records a per-user cutoff instant: tokens issued before
// the cutoff are rejected. A password change therefore kills every token but
// the one performing the change, whose JTI is allowlisted until expiry.
type RevocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocationStore constructs a RevocationStore. ttl should match the token
// lifetime so keys expire together with the last token they could affect.
func NewRevocationStore(client *redis.Client, ttl time.Duration) *RevocationStore {
	return &RevocationStore{client: client, ttl: ttl}
}

func cutoffKey(userID int64) string {
	return fmt.Sprintf("auth:revoked_before:%d", userID)
}

func exemptKey(userID int64, jti string) string {
	return fmt.Sprintf("auth:exempt:%d:%s", userID, jti)
}

// Revoke invalidates all of the user's tokens issued up to now, keeping
// exceptJTI valid when non-empty. The cutoff is stored in whole seconds
// because JWT iat claims carry second precision.
func (s *RevocationStore) Revoke(ctx context.Context, userID int64, exceptJTI string) error {
	now := time.Now().Unix()
	if err := s.client.Set(ctx, cutoffKey(userID), now, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: set revocation cutoff: %w", err)
	}
	if exceptJTI != "" {
		if err := s.client.Set(ctx, exemptKey(userID, exceptJTI), 1, s.ttl).Err(); err != nil {
			return fmt.Errorf("auth: set revocation exemption: %w", err)
		}
	}
	return nil
}

// IsRevoked reports whether a token issued at issuedAt is no longer valid.
func (s *RevocationStore) IsRevoked(ctx context.Context, userID int64, jti string, issuedAt time.Time) (bool, error) {
	cutoff, err := s.client.Get(ctx, cutoffKey(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: get revocation cutoff: %w", err)
	}
	// Tokens issued in the cutoff second or later stay valid, so a login in
	// the same second as a password change is not bounced.
	if issuedAt.Unix() >= cutoff {
		return false, nil
	}
	exempt, err := s.client.Exists(ctx, exemptKey(userID, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation exemption: %w", err)
	}
	return exempt == 0, nil
}

var _ Revoker = (*RevocationStore)(nil)
