package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
	"time"

	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x)
			img.Pix[i+1] = uint8(y)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(gradient(320, 240), 0, 80)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 320 {
		t.Errorf("got width %d, want 320 untouched", img.Bounds().Dx())
	}
}

func TestEncodeJPEGDownscale(t *testing.T) {
	data, err := EncodeJPEG(gradient(640, 480), 64, 80)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("got width %d, want 64", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 48 {
		t.Errorf("got height %d, want 48 (aspect kept)", img.Bounds().Dy())
	}
}

func TestFrameCache(t *testing.T) {
	c := NewFrameCache()
	if _, err := c.Frame(); err != ErrNoFrame {
		t.Fatalf("got %v, want ErrNoFrame", err)
	}
	c.Put(gradient(8, 8))
	if _, err := c.Frame(); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if _, err := c.Frame(); err != ErrNoFrame {
		t.Errorf("got %v after clear, want ErrNoFrame", err)
	}
}

func TestGatedAudioTrackMute(t *testing.T) {
	track, err := NewGatedAudioTrack()
	if err != nil {
		t.Fatal(err)
	}
	if track.Muted() {
		t.Fatal("new track must start unmuted")
	}
	track.SetMuted(true)
	track.SetMuted(true)
	if !track.Muted() {
		t.Error("mute lost")
	}
	// a muted write is dropped before it reaches the unbound track
	if err := track.WriteSample(pionmedia.Sample{Data: []byte{0}, Duration: 20 * time.Millisecond}); err != nil {
		t.Errorf("muted write: %v", err)
	}
	track.SetMuted(false)
	if track.Muted() {
		t.Error("unmute lost")
	}
}
