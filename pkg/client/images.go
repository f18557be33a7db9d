package client

import (
	"sync"

	"github.com/picshelf/picshelf/internal/domain"
)

// ImageCache caches fetched image records per session. It subscribes to
// the session store's remove-user signal so a new login never sees the
// previous account's images.
type ImageCache struct {
	mu    sync.RWMutex
	items []domain.Image
}

func NewImageCache(session *SessionStore) *ImageCache {
	c := &ImageCache{}
	session.OnClear(c.Reset)
	return c
}

func (c *ImageCache) Receive(images []domain.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, images...)
}

func (c *ImageCache) All() []domain.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Image, len(c.items))
	copy(out, c.items)
	return out
}

func (c *ImageCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
