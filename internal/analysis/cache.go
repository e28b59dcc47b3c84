package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache keeps available outcomes by content hash. Unavailable outcomes are
// never stored so a transient provider failure is retried on the next call.
type Cache struct {
	lru *expirable.LRU[string, Outcome]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}
	return &Cache{lru: expirable.NewLRU[string, Outcome](size, nil, ttl)}
}

// Key hashes the debate context together with the argument text.
func Key(debateContext, text string) string {
	h := sha256.New()
	h.Write([]byte(debateContext))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(key string) (Outcome, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Add(key string, o Outcome) {
	if !o.IsAvailable() {
		return
	}
	c.lru.Add(key, o)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
