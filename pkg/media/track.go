package media

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

// NewVideoTrack creates an outgoing sample track for the given codec.
func NewVideoTrack(codec string) (*webrtc.TrackLocalStaticSample, error) {
	var mime string
	switch strings.ToLower(codec) {
	case "h264":
		mime = webrtc.MimeTypeH264
	case "vpx", "vp8":
		mime = webrtc.MimeTypeVP8
	case "vp9":
		mime = webrtc.MimeTypeVP9
	default:
		return nil, fmt.Errorf("unsupported codec video:%s", codec)
	}
	return webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: mime}, "video", "camera")
}

// GatedAudioTrack is an outgoing Opus track with an atomic mute gate.
// Muting disables the samples without removing the track, so the remote
// side keeps its receiver and unmute needs no renegotiation.
type GatedAudioTrack struct {
	*webrtc.TrackLocalStaticSample
	muted atomic.Bool
}

func NewGatedAudioTrack() (*GatedAudioTrack, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "microphone")
	if err != nil {
		return nil, err
	}
	return &GatedAudioTrack{TrackLocalStaticSample: track}, nil
}

func (t *GatedAudioTrack) SetMuted(v bool) { t.muted.Store(v) }
func (t *GatedAudioTrack) Muted() bool     { return t.muted.Load() }

// WriteSample drops the sample while the gate is closed.
func (t *GatedAudioTrack) WriteSample(s pionmedia.Sample) error {
	if t.muted.Load() {
		return nil
	}
	return t.TrackLocalStaticSample.WriteSample(s)
}
