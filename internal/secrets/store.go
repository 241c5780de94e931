// Package secrets provides the SecretResolver implementations the engine
// ships with. Values are resolved per invocation and never cached, so a
// node only ever sees the slots it declared itself.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"engine/internal/flow"

	"github.com/redis/go-redis/v9"
)

// EnvStore resolves secrets from process environment variables using the
// convention SECRET_<NODE>_<SLOT>, uppercased with non-alphanumerics
// replaced by underscores.
type EnvStore struct{}

func NewEnvStore() EnvStore {
	return EnvStore{}
}

func (EnvStore) Resolve(_ context.Context, nodeName, slot string) (any, error) {
	value, ok := os.LookupEnv(EnvKey(nodeName, slot))
	if !ok || value == "" {
		return nil, nil
	}
	return value, nil
}

func EnvKey(nodeName, slot string) string {
	mangle := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z':
				b.WriteRune(r - 32)
			case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
				b.WriteRune(r)
			default:
				b.WriteRune('_')
			}
		}
		return b.String()
	}
	return fmt.Sprintf("SECRET_%s_%s", mangle(nodeName), mangle(slot))
}

// RedisStore resolves secrets from Redis under secret:<node>:<slot>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Resolve(ctx context.Context, nodeName, slot string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	value, err := s.client.Get(ctx, fmt.Sprintf("secret:%s:%s", nodeName, slot)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis secret lookup failed: %w", err)
	}
	return value, nil
}

// StaticStore serves a fixed in-memory map keyed by node then slot. Used
// in tests and local development.
type StaticStore map[string]map[string]any

func (s StaticStore) Resolve(_ context.Context, nodeName, slot string) (any, error) {
	slots, ok := s[nodeName]
	if !ok {
		return nil, nil
	}
	return slots[slot], nil
}

var _ flow.SecretResolver = EnvStore{}
var _ flow.SecretResolver = (*RedisStore)(nil)
var _ flow.SecretResolver = StaticStore(nil)
