package knowledge

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes parsed documents by content hash so each document version is
// parsed once no matter how many requests use it.
type Cache struct {
	entries *lru.Cache[string, *Base]
}

// NewCache creates a cache holding up to size parsed documents.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 32
	}
	entries, err := lru.New[string, *Base](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Load returns the parsed Base for text, parsing it only on a cache miss.
func (c *Cache) Load(text string) *Base {
	hash := HashText(text)
	if base, ok := c.entries.Get(hash); ok {
		return base
	}
	base := &Base{Text: text, Hash: hash, qa: Parse(text)}
	c.entries.Add(hash, base)
	return base
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.entries.Len()
}
