package media

import (
	"errors"
	"image"
	"sync"
	"time"
)

// Source produces the most recent still frame of a live video feed.
// The station backs it with the local capture device, the console with
// a per-session cache of decoded remote frames.
type Source interface {
	Frame() (*image.RGBA, error)
}

var ErrNoFrame = errors.New("no frame available")

// FrameCache keeps the last pushed frame. It implements Source.
type FrameCache struct {
	mu    sync.RWMutex
	frame *image.RGBA
	at    time.Time
}

func NewFrameCache() *FrameCache { return &FrameCache{} }

func (c *FrameCache) Put(frame *image.RGBA) {
	c.mu.Lock()
	c.frame = frame
	c.at = time.Now()
	c.mu.Unlock()
}

func (c *FrameCache) Frame() (*image.RGBA, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == nil {
		return nil, ErrNoFrame
	}
	return c.frame, nil
}

func (c *FrameCache) At() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// Clear drops the cached frame so a torn-down session doesn't pin its
// remote media in memory.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frame = nil
	c.at = time.Time{}
	c.mu.Unlock()
}
