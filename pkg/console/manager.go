package console

import (
	"context"
	"errors"
	"sync"

	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/invigilo/proctord/pkg/snapshot"
)

var (
	ErrNoSession   = errors.New("no session for peer")
	ErrOutOfWindow = errors.New("peer is not in the visible window")
)

// Manager owns the admin-side session lifecycle: it mirrors the relay's
// presence roster, keeps one live Session per test-taker in the visible
// window, and answers their offers. Sessions never outgrow the window,
// so the media cost is bounded by the page size no matter how many
// users are online.
type Manager struct {
	conn    signaler
	newPeer PeerFactory
	log     *logger.Logger

	mu      sync.Mutex
	window  Window
	roster  map[string]api.UserInfo
	visible map[string]struct{}

	sessions *SessionStore
	attempts map[string]string // peer id -> last known attempt id

	pipeline *snapshot.Pipeline
}

func NewManager(conn signaler, newPeer PeerFactory, pageSize int,
	pipeline *snapshot.Pipeline, log *logger.Logger) *Manager {
	return &Manager{
		conn:     conn,
		newPeer:  newPeer,
		log:      log,
		window:   Window{Size: pageSize},
		roster:   make(map[string]api.UserInfo),
		visible:  make(map[string]struct{}),
		sessions: NewSessionStore(),
		attempts: make(map[string]string),
		pipeline: pipeline,
	}
}

// Start announces the admin identity and pulls the initial roster.
func (m *Manager) Start(externalId string) error {
	m.conn.Notify(api.Join, api.JoinRequest{ExternalId: externalId, Role: api.RoleAdmin})
	return m.Refresh()
}

// Refresh re-pulls the presence snapshot from the relay.
func (m *Manager) Refresh() error {
	users, err := api.UnwrapChecked[api.OnlineUsersPayload](
		m.conn.Call(api.GetOnlineUsers, nil))
	if err != nil {
		return err
	}
	if users == nil {
		return api.ErrMalformed
	}
	m.OnPresenceSnapshot(*users)
	return nil
}

// HandlePacket dispatches server-pushed packets.
func (m *Manager) HandlePacket(in api.In) {
	switch in.T {
	case api.UserJoined:
		if p := api.Unwrap[api.UserJoinedPayload](in.Payload); p != nil {
			m.OnUserJoined(*p)
		}
	case api.UserLeft:
		if p := api.Unwrap[api.UserLeftPayload](in.Payload); p != nil {
			m.OnUserLeft(*p)
		}
	case api.Signal:
		if p := api.Unwrap[api.SignalPayload](in.Payload); p != nil {
			m.OnSignal(*p)
		}
	default:
		m.log.Warn().Msgf("unhandled packet: %v", in.T)
	}
}

// OnPresenceSnapshot replaces the roster with the relay's copy and
// reconciles the sessions against the new visible window.
func (m *Manager) OnPresenceSnapshot(users api.OnlineUsersPayload) {
	m.mu.Lock()
	m.roster = make(map[string]api.UserInfo, len(users))
	for id, info := range users {
		if info.Role == api.RoleUser {
			m.roster[id] = info
		}
	}
	m.reconcileLocked(true)
	m.mu.Unlock()
}

func (m *Manager) OnUserJoined(p api.UserJoinedPayload) {
	if p.Role != api.RoleUser {
		return
	}
	m.mu.Lock()
	m.roster[p.Id] = api.UserInfo{ExternalId: p.ExternalId, Role: p.Role}
	m.reconcileLocked(true)
	m.mu.Unlock()
}

func (m *Manager) OnUserLeft(p api.UserLeftPayload) {
	m.mu.Lock()
	delete(m.roster, p.Id)
	delete(m.attempts, p.Id)
	m.reconcileLocked(false)
	m.mu.Unlock()
}

// SetWindow moves the visible window (page flip or filter change) and
// tears down the sessions that fell out of it. No sessions are created
// here: a paged-in peer gets one lazily when its first offer arrives,
// or on the next presence event.
func (m *Manager) SetWindow(page int, filter string) []string {
	m.mu.Lock()
	m.window.Page, m.window.Filter = page, filter
	ids := m.reconcileLocked(false)
	m.mu.Unlock()
	return ids
}

// reconcileLocked recomputes the visible set, closes sessions that left
// it, and (when create is set) opens sessions for windowed peers that
// lack one. Returns the ordered visible ids.
func (m *Manager) reconcileLocked(create bool) []string {
	ids := m.window.Visible(m.roster)
	m.visible = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.visible[id] = struct{}{}
	}
	for _, id := range m.sessions.Keys() {
		if _, ok := m.visible[id]; ok {
			continue
		}
		if sess, ok := m.sessions.Pop(id); ok {
			m.log.Debug().Str("peer", id).Msg("session paged out")
			sess.Close()
		}
	}
	if create {
		for _, id := range ids {
			if _, err := m.sessionLocked(id); err != nil {
				m.log.Error().Err(err).Str("peer", id).Msg("session create")
			}
		}
	}
	return ids
}

// sessionLocked returns the session for a windowed peer, creating it on
// first use. The store stays capped at the window size.
func (m *Manager) sessionLocked(id string) (*Session, error) {
	if sess, err := m.sessions.Find(id); err == nil {
		return sess, nil
	}
	if _, ok := m.visible[id]; !ok {
		return nil, ErrOutOfWindow
	}
	if m.sessions.Len() >= m.window.Size {
		return nil, errors.New("session pool is full")
	}
	frames := media.NewFrameCache()
	peer, err := m.newPeer(frames)
	if err != nil {
		return nil, err
	}
	sess := &Session{peerId: id, peer: peer, frames: frames}
	peer.OnIceCandidate(func(c api.Candidate) {
		m.signal(id, api.CandidateSignal(c))
	})
	m.sessions.Put(id, sess)
	m.log.Info().Str("peer", id).Msg("session opened")
	return sess, nil
}

// OnSignal handles a relayed negotiation payload from one test-taker.
// Peers outside the visible window are ignored wholesale, that is what
// keeps the paging bound honest.
func (m *Manager) OnSignal(p api.SignalPayload) {
	data := api.Unwrap[api.SignalData](p.Data)
	if data == nil {
		m.log.Error().Str("peer", p.From).Msg("broken signal payload")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visible[p.From]; !ok {
		m.log.Debug().Str("peer", p.From).Msg("signal from outside the window, ignored")
		return
	}
	sess, err := m.sessionLocked(p.From)
	if err != nil {
		m.log.Error().Err(err).Str("peer", p.From).Msg("signal")
		return
	}

	switch {
	case data.Sdp != nil && data.Sdp.Type == "offer":
		answer, err := sess.peer.Answer(*data.Sdp)
		if err != nil {
			// the session stays; the station will re-offer
			m.log.Error().Err(err).Str("peer", p.From).Msg("answer")
			return
		}
		m.signal(p.From, api.SdpSignal(answer.Type, answer.SDP))
	case data.Candidate != nil:
		if err := sess.peer.AddCandidate(*data.Candidate); err != nil {
			m.log.Error().Err(err).Str("peer", p.From).Msg("candidate")
		}
	default:
		m.log.Warn().Str("peer", p.From).Msg("unexpected signal data")
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

// Mute asks the relay to forward a mute token to the peer. Repeats are
// harmless, the station applies them idempotently.
func (m *Manager) Mute(id string)   { m.conn.Notify(api.MuteUser, api.ControlRequest{To: id}) }
func (m *Manager) Unmute(id string) { m.conn.Notify(api.UnmuteUser, api.ControlRequest{To: id}) }

// SetAttempt records the attempt id the external assessment flow
// reported for a peer; manual snapshots pick it up as their context.
func (m *Manager) SetAttempt(peerId, attemptId string) {
	m.mu.Lock()
	m.attempts[peerId] = attemptId
	m.mu.Unlock()
}

// Snapshot captures one still of a windowed peer's stream on operator
// demand. The image always lands in the archive; it is uploaded only
// when an attempt id is known for the peer.
func (m *Manager) Snapshot(ctx context.Context, peerId string) (snapshot.Job, error) {
	m.mu.Lock()
	sess, err := m.sessions.Find(peerId)
	attempt := m.attempts[peerId]
	m.mu.Unlock()
	if err != nil {
		return snapshot.Job{}, ErrNoSession
	}
	var actx *snapshot.Context
	if attempt != "" {
		actx = &snapshot.Context{AttemptId: attempt}
	}
	job := m.pipeline.Capture(ctx, peerId, sess.Frames(), actx)
	m.pipeline.Report(job)
	return job, nil
}

// Visible returns the ordered peer ids of the current window.
func (m *Manager) Visible() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Visible(m.roster)
}

func (m *Manager) Sessions() int { return m.sessions.Len() }

// Teardown closes every live session.
func (m *Manager) Teardown() {
	m.sessions.CloseAll()
	m.log.Info().Msg("all sessions closed")
}
