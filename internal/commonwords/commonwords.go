package commonwords

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding the words.
const DefaultKey = "common_words"

// Store wraps a Redis client to keep the common-word list the heuristic
// ranks candidates with.
type Store struct {
	client *redis.Client
	key    string
}

// New creates a Store on the given set key, DefaultKey when empty.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Add inserts words, lowercased.
func (s *Store) Add(ctx context.Context, words ...string) error {
	members := make([]interface{}, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			members = append(members, w)
		}
	}
	if len(members) == 0 {
		return nil
	}
	return s.client.SAdd(ctx, s.key, members...).Err()
}

// Remove deletes a word.
func (s *Store) Remove(ctx context.Context, word string) error {
	return s.client.SRem(ctx, s.key, strings.ToLower(strings.TrimSpace(word))).Err()
}

// All returns every stored word.
func (s *Store) All(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.key).Result()
}
