package console

import (
	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/invigilo/proctord/pkg/rtc"
)

// signaler is the slice of the relay connection the manager uses.
type signaler interface {
	Notify(t api.PT, payload any)
	Call(t api.PT, payload any) ([]byte, error)
}

// Peer is the answerer-side negotiation surface of one media session.
// *rtc.Peer implements it.
type Peer interface {
	Answer(offer api.Sdp) (api.Sdp, error)
	AddCandidate(c api.Candidate) error
	OnIceCandidate(fn func(c api.Candidate))
	State() rtc.State
	Close() error
}

// PeerFactory builds a peer wired to push decoded remote frames into the
// session's frame cache.
type PeerFactory func(frames *media.FrameCache) (Peer, error)

// PionPeers adapts an rtc.ApiFactory into a PeerFactory. Remote RTP is
// drained to keep the transport healthy; plugging an actual decoder into
// the frame cache is the embedder's business.
func PionPeers(f *rtc.ApiFactory) PeerFactory {
	return func(frames *media.FrameCache) (Peer, error) {
		peer, err := f.NewPeer()
		if err != nil {
			return nil, err
		}
		peer.OnRemoteTrack = rtc.DrainRemote
		return peer, nil
	}
}
