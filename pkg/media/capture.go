package media

import (
	"image"
	"sync"
	"time"
)

// Capture is a local capture device: on top of Source it has an
// explicit open step that can fail (no camera, no permission).
type Capture interface {
	Source
	Start() error
	Stop()
}

// PatternCapture is a synthetic capture device producing a moving
// gradient. It stands in for a real camera in development and tests.
type PatternCapture struct {
	w, h int
	fps  int

	cache FrameCache

	mu   sync.Mutex
	stop chan struct{}
}

func NewPatternCapture(w, h, fps int) *PatternCapture {
	return &PatternCapture{w: w, h: h, fps: fps}
}

func (c *PatternCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}
	c.stop = make(chan struct{})
	go c.run(c.stop)
	return nil
}

func (c *PatternCapture) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.mu.Unlock()
	c.cache.Clear()
}

func (c *PatternCapture) Frame() (*image.RGBA, error) { return c.cache.Frame() }

func (c *PatternCapture) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(c.fps))
	defer ticker.Stop()
	var shift uint8
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.cache.Put(c.draw(shift))
			shift += 3
		}
	}
}

func (c *PatternCapture) draw(shift uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x) + shift
			img.Pix[i+1] = uint8(y) + shift
			img.Pix[i+2] = uint8(x+y) - shift
			img.Pix[i+3] = 0xff
		}
	}
	return img
}
