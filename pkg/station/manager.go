package station

import (
	"sync"

	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/com"
	"github.com/invigilo/proctord/pkg/logger"
)

// audioGate is the mute switch on the shared outgoing audio track.
type audioGate interface {
	SetMuted(v bool)
	Muted() bool
}

// Manager owns the test-taker side of the signaling: it announces the
// user identity, offers the local media to every online admin, and
// applies mute tokens. There is one peer per admin; all peers carry the
// same tracks, so mute state is uniform across them by construction.
type Manager struct {
	conn    signaler
	newPeer PeerFactory
	gate    audioGate
	log     *logger.Logger

	peers com.Map[string, Peer]

	// OnMuteChanged lets the UI reflect the current state, best-effort.
	OnMuteChanged func(muted bool)
}

func NewManager(conn signaler, newPeer PeerFactory, gate audioGate, log *logger.Logger) *Manager {
	return &Manager{
		conn:    conn,
		newPeer: newPeer,
		gate:    gate,
		log:     log,
		peers:   com.NewMap[string, Peer](),
	}
}

// Enter announces the user identity and offers to every admin already
// online. Admins joining later get their offers from the presence push.
func (m *Manager) Enter(externalId string) error {
	m.conn.Notify(api.Join, api.JoinRequest{ExternalId: externalId, Role: api.RoleUser})
	users, err := api.UnwrapChecked[api.OnlineUsersPayload](
		m.conn.Call(api.GetOnlineUsers, nil))
	if err != nil {
		return err
	}
	if users == nil {
		return api.ErrMalformed
	}
	for id, info := range *users {
		if info.Role == api.RoleAdmin {
			m.offerTo(id)
		}
	}
	return nil
}

// HandlePacket dispatches server-pushed packets.
func (m *Manager) HandlePacket(in api.In) {
	switch in.T {
	case api.UserJoined:
		if p := api.Unwrap[api.UserJoinedPayload](in.Payload); p != nil && p.Role == api.RoleAdmin {
			m.offerTo(p.Id)
		}
	case api.UserLeft:
		if p := api.Unwrap[api.UserLeftPayload](in.Payload); p != nil {
			m.OnUserLeft(p.Id)
		}
	case api.Signal:
		if p := api.Unwrap[api.SignalPayload](in.Payload); p != nil {
			m.OnSignal(*p)
		}
	case api.Mute:
		m.setMuted(true)
	case api.Unmute:
		m.setMuted(false)
	default:
		m.log.Warn().Msgf("unhandled packet: %v", in.T)
	}
}

// offerTo starts a fresh session towards one admin. An existing peer for
// the same id is left alone: duplicate presence events must not spawn
// duplicate connections.
func (m *Manager) offerTo(adminId string) {
	if m.peers.Has(adminId) {
		return
	}
	peer, err := m.newPeer()
	if err != nil {
		m.log.Error().Err(err).Str("admin", adminId).Msg("peer create")
		return
	}
	peer.OnIceCandidate(func(c api.Candidate) {
		m.signal(adminId, api.CandidateSignal(c))
	})
	offer, err := peer.Offer()
	if err != nil {
		m.log.Error().Err(err).Str("admin", adminId).Msg("offer")
		_ = peer.Close()
		return
	}
	m.peers.Put(adminId, peer)
	m.signal(adminId, api.SdpSignal(offer.Type, offer.SDP))
	m.log.Info().Str("admin", adminId).Msg("offered")
}

// OnSignal applies an answer or a candidate from one admin. Signals for
// admins we never offered to are dropped.
func (m *Manager) OnSignal(p api.SignalPayload) {
	data := api.Unwrap[api.SignalData](p.Data)
	if data == nil {
		m.log.Error().Str("admin", p.From).Msg("broken signal payload")
		return
	}
	peer, err := m.peers.Find(p.From)
	if err != nil {
		m.log.Debug().Str("admin", p.From).Msg("signal for unknown admin, dropped")
		return
	}
	switch {
	case data.Sdp != nil && data.Sdp.Type == "answer":
		if err := peer.SetAnswer(*data.Sdp); err != nil {
			m.log.Error().Err(err).Str("admin", p.From).Msg("set answer")
		}
	case data.Candidate != nil:
		if err := peer.AddCandidate(*data.Candidate); err != nil {
			m.log.Error().Err(err).Str("admin", p.From).Msg("candidate")
		}
	default:
		m.log.Warn().Str("admin", p.From).Msg("unexpected signal data")
	}
}

func (m *Manager) OnUserLeft(id string) {
	if peer, ok := m.peers.Pop(id); ok {
		_ = peer.Close()
		m.log.Info().Str("admin", id).Msg("admin left, session closed")
	}
}

func (m *Manager) signal(to string, data api.SignalData) {
	raw, err := data.Raw()
	if err != nil {
		m.log.Error().Err(err).Msg("signal encode")
		return
	}
	m.conn.Notify(api.Signal, api.SignalRequest{To: to, Data: raw})
}

// setMuted flips the shared gate. Repeated tokens of the same kind are
// no-ops, and the state applies to every admin session at once.
func (m *Manager) setMuted(v bool) {
	if m.gate.Muted() == v {
		return
	}
	m.gate.SetMuted(v)
	m.log.Info().Msgf("microphone muted=%v", v)
	if m.OnMuteChanged != nil {
		m.OnMuteChanged(v)
	}
}

func (m *Manager) Muted() bool { return m.gate.Muted() }

func (m *Manager) Sessions() int { return m.peers.Len() }

// Teardown closes every admin session.
func (m *Manager) Teardown() {
	var wg sync.WaitGroup
	for _, id := range m.peers.Keys() {
		if peer, ok := m.peers.Pop(id); ok {
			wg.Add(1)
			go func() {
				_ = peer.Close()
				wg.Done()
			}()
		}
	}
	wg.Wait()
	m.log.Info().Msg("all admin sessions closed")
}
