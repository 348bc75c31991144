package rtc

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/pion/webrtc/v4"
)

// State is the negotiation state of a peer session.
type State int32

const (
	StateNew State = iota
	StateOffering
	StateAnswering
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOffering:
		return "offering"
	case StateAnswering:
		return "answering"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var ErrClosed = errors.New("peer closed")

// DrainRemote reads and discards remote RTP so the interceptor chain and
// congestion control keep running when nobody decodes the track.
func DrainRemote(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

// Peer wraps one pion connection with the negotiation bookkeeping both
// sides need: the station offers, the console answers. ICE candidates
// arriving before the remote description are pooled and flushed later.
type Peer struct {
	conn *webrtc.PeerConnection
	log  *logger.Logger

	state atomic.Int32

	mu      sync.Mutex
	pending []webrtc.ICECandidateInit

	closer   sync.Once
	closeErr error

	OnRemoteTrack func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

func (p *Peer) init() {
	p.conn.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		p.log.Debug().Msgf("remote [%s] track", track.Codec().MimeType)
		if p.OnRemoteTrack != nil {
			p.OnRemoteTrack(track, receiver)
		}
	})
	p.conn.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		p.log.Debug().Str(".state", state.String()).Msg("ICE")
		if state == webrtc.ICEConnectionStateFailed {
			p.log.Error().Msgf("connection fail! connection: %v, gathering: %v, signalling: %v",
				p.conn.ConnectionState(), p.conn.ICEGatheringState(), p.conn.SignalingState())
		}
	})
}

func (p *Peer) State() State { return State(p.state.Load()) }

// OnIceCandidate registers the trickle ICE callback; the gathering-end
// nil marker is swallowed.
func (p *Peer) OnIceCandidate(fn func(c api.Candidate)) {
	p.conn.OnICECandidate(func(ice *webrtc.ICECandidate) {
		if ice == nil {
			p.log.Debug().Msg("ICE gathering was complete probably")
			return
		}
		init := ice.ToJSON()
		fn(api.Candidate{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		})
	})
}

func (p *Peer) AddTrack(track webrtc.TrackLocal) error {
	sender, err := p.conn.AddTrack(track)
	if err != nil {
		return err
	}
	// Read incoming RTCP packets so interceptors keep working.
	go func() {
		rtcpBuf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(rtcpBuf); err != nil {
				return
			}
		}
	}()
	return nil
}

// Offer creates and applies the local offer (offerer side).
func (p *Peer) Offer() (api.Sdp, error) {
	if p.State() == StateClosed {
		return api.Sdp{}, ErrClosed
	}
	offer, err := p.conn.CreateOffer(nil)
	if err != nil {
		return api.Sdp{}, err
	}
	if err = p.conn.SetLocalDescription(offer); err != nil {
		return api.Sdp{}, err
	}
	p.state.Store(int32(StateOffering))
	p.log.Debug().Msg("created offer")
	return api.Sdp{Type: "offer", SDP: offer.SDP}, nil
}

// SetAnswer completes the negotiation on the offerer side.
func (p *Peer) SetAnswer(sdp api.Sdp) error {
	if p.State() == StateClosed {
		return ErrClosed
	}
	err := p.conn.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp.SDP,
	})
	if err != nil {
		return err
	}
	p.state.Store(int32(StateConnected))
	p.flushCandidates()
	return nil
}

// Answer applies the remote offer and produces the local answer
// (answerer side); the negotiation completes here.
func (p *Peer) Answer(offer api.Sdp) (api.Sdp, error) {
	if p.State() == StateClosed {
		return api.Sdp{}, ErrClosed
	}
	p.state.Store(int32(StateAnswering))
	err := p.conn.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer.SDP,
	})
	if err != nil {
		p.state.Store(int32(StateNew))
		return api.Sdp{}, err
	}
	p.flushCandidates()
	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return api.Sdp{}, err
	}
	if err = p.conn.SetLocalDescription(answer); err != nil {
		return api.Sdp{}, err
	}
	p.state.Store(int32(StateConnected))
	p.log.Debug().Msg("created answer")
	return api.Sdp{Type: "answer", SDP: answer.SDP}, nil
}

// AddCandidate adds a remote ICE candidate, pooling it when the remote
// description hasn't been applied yet.
func (p *Peer) AddCandidate(c api.Candidate) error {
	if p.State() == StateClosed {
		return ErrClosed
	}
	init := webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	}
	p.mu.Lock()
	if p.conn.RemoteDescription() == nil {
		p.pending = append(p.pending, init)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.conn.AddICECandidate(init)
}

func (p *Peer) flushCandidates() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, c := range pending {
		if err := p.conn.AddICECandidate(c); err != nil {
			p.log.Error().Err(err).Msg("pooled candidate")
		}
	}
}

// Close releases the underlying transport. Safe to call twice: teardown
// paths can race (paged out vs peer disconnected).
func (p *Peer) Close() error {
	p.state.Store(int32(StateClosed))
	p.closer.Do(func() { p.closeErr = p.conn.Close() })
	return p.closeErr
}
