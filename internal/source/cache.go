package source

import (
	"fmt"
	"os"
	"sync"
)

// Cache keeps source handles keyed by file path so repeated requests for the
// same file share one handle and decode once.
//
// Handles remain in memory until removed with Evict or Clear. Different
// spellings of the same path are separate entries.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	opts    Options
	handles map[string]*Handle
}

// NewCache creates an empty cache whose handles are opened with opts.
func NewCache(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		handles: make(map[string]*Handle),
	}
}

// Load returns the cached handle for path or opens the file.
func (c *Cache) Load(path string) (*Handle, error) {
	c.mu.RLock()
	if h, ok := c.handles[path]; ok {
		c.mu.RUnlock()
		return h, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	h, err := FromBytes(path, data, c.opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.handles[path]; ok {
		return existing, nil
	}
	c.handles[path] = h
	return h, nil
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Clear removes every handle.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.handles = make(map[string]*Handle)
	c.mu.Unlock()
}

// Evict removes the handle for path. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.handles, path)
	c.mu.Unlock()
}
