package station

import (
	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/rtc"
	"github.com/pion/webrtc/v4"
)

// signaler is the slice of the relay connection the manager uses.
type signaler interface {
	Notify(t api.PT, payload any)
	Call(t api.PT, payload any) ([]byte, error)
}

// Peer is the offerer-side negotiation surface of one admin session.
// *rtc.Peer implements it.
type Peer interface {
	Offer() (api.Sdp, error)
	SetAnswer(answer api.Sdp) error
	AddCandidate(c api.Candidate) error
	OnIceCandidate(fn func(c api.Candidate))
	State() rtc.State
	Close() error
}

// PeerFactory builds a peer with the shared outgoing tracks attached.
type PeerFactory func() (Peer, error)

// PionPeers adapts an rtc.ApiFactory into a PeerFactory. Every peer
// carries the same local tracks: one capture feed serves any number of
// watching admins.
func PionPeers(f *rtc.ApiFactory, tracks ...webrtc.TrackLocal) PeerFactory {
	return func() (Peer, error) {
		peer, err := f.NewPeer()
		if err != nil {
			return nil, err
		}
		for _, t := range tracks {
			if err := peer.AddTrack(t); err != nil {
				_ = peer.Close()
				return nil, err
			}
		}
		return peer, nil
	}
}
