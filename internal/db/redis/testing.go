package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing client, typically rueidis/mock.
func NewStoreForTest(c rueidis.Client) *Store { return newStore(c) }
