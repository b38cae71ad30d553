package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AccessTTL bounds how long a verified portal or dashboard session stays
// valid before the visitor must re-enter the code.
const AccessTTL = 30 * time.Minute

// AccessCache issues and checks short-lived access tokens after a successful
// code verification.
type AccessCache struct {
	rdb *redis.Client
}

// NewAccessCache builds an AccessCache over Redis.
func NewAccessCache(rdb *redis.Client) *AccessCache {
	return &AccessCache{rdb: rdb}
}

func accessKey(token string) string {
	return fmt.Sprintf("portal:access:%s", token)
}

// Issue mints a new access token bound to a scope (the client or business it
// grants access to) with the standard TTL.
func (c *AccessCache) Issue(ctx context.Context, scope string) (string, error) {
	token := randomToken(8)
	if err := c.rdb.Set(ctx, accessKey(token), scope, AccessTTL).Err(); err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return token, nil
}

// Check returns the scope bound to a token, or empty when the token is
// unknown or expired.
func (c *AccessCache) Check(ctx context.Context, token string) (string, error) {
	scope, err := c.rdb.Get(ctx, accessKey(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("check access token: %w", err)
	}
	return scope, nil
}
