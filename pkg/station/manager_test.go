package station

import (
	"fmt"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/rtc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	t       api.PT
	payload any
}

type fakeSignaler struct {
	mu     sync.Mutex
	notes  []note
	online api.OnlineUsersPayload
}

func (f *fakeSignaler) Notify(t api.PT, payload any) {
	f.mu.Lock()
	f.notes = append(f.notes, note{t, payload})
	f.mu.Unlock()
}

func (f *fakeSignaler) Call(t api.PT, _ any) ([]byte, error) {
	if t == api.GetOnlineUsers {
		return json.Marshal(f.online)
	}
	return nil, fmt.Errorf("unexpected call %v", t)
}

func (f *fakeSignaler) signals() []api.SignalRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.SignalRequest
	for _, n := range f.notes {
		if n.t == api.Signal {
			out = append(out, n.payload.(api.SignalRequest))
		}
	}
	return out
}

type fakePeer struct {
	mu         sync.Mutex
	offered    int
	answers    []api.Sdp
	candidates []api.Candidate
	closed     bool
}

func (p *fakePeer) Offer() (api.Sdp, error) {
	p.mu.Lock()
	p.offered++
	p.mu.Unlock()
	return api.Sdp{Type: "offer", SDP: "v=0 offer"}, nil
}

func (p *fakePeer) SetAnswer(a api.Sdp) error {
	p.mu.Lock()
	p.answers = append(p.answers, a)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) AddCandidate(c api.Candidate) error {
	p.mu.Lock()
	p.candidates = append(p.candidates, c)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) OnIceCandidate(func(c api.Candidate)) {}
func (p *fakePeer) State() rtc.State                     { return rtc.StateOffering }
func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

type fakeGate struct{ muted bool }

func (g *fakeGate) SetMuted(v bool) { g.muted = v }
func (g *fakeGate) Muted() bool     { return g.muted }

type peerLog struct {
	mu      sync.Mutex
	created []*fakePeer
}

func (l *peerLog) factory() PeerFactory {
	return func() (Peer, error) {
		p := &fakePeer{}
		l.mu.Lock()
		l.created = append(l.created, p)
		l.mu.Unlock()
		return p, nil
	}
}

func newTestManager(online api.OnlineUsersPayload) (*Manager, *fakeSignaler, *peerLog, *fakeGate) {
	conn := &fakeSignaler{online: online}
	peers := &peerLog{}
	gate := &fakeGate{}
	m := NewManager(conn, peers.factory(), gate, logger.Default())
	return m, conn, peers, gate
}

func TestEnterOffersToAdminsOnly(t *testing.T) {
	m, conn, _, _ := newTestManager(api.OnlineUsersPayload{
		"a1": {ExternalId: "admin@x", Role: api.RoleAdmin},
		"a2": {ExternalId: "admin2@x", Role: api.RoleAdmin},
		"u2": {ExternalId: "other@x", Role: api.RoleUser},
	})

	require.NoError(t, m.Enter("me@x"))

	assert.Equal(t, 2, m.Sessions(), "one session per admin, none for users")
	sigs := conn.signals()
	require.Len(t, sigs, 2)
	for _, s := range sigs {
		assert.Contains(t, []string{"a1", "a2"}, s.To)
		data := api.Unwrap[api.SignalData](s.Data)
		require.NotNil(t, data)
		require.NotNil(t, data.Sdp)
		assert.Equal(t, "offer", data.Sdp.Type)
	}
}

func TestLateAdminGetsOffer(t *testing.T) {
	m, conn, _, _ := newTestManager(nil)
	require.NoError(t, m.Enter("me@x"))
	require.Empty(t, conn.signals())

	joined, err := json.Marshal(api.UserJoinedPayload{Id: "a9", ExternalId: "late@x", Role: api.RoleAdmin})
	require.NoError(t, err)
	m.HandlePacket(api.In{T: api.UserJoined, Payload: joined})

	assert.Equal(t, 1, m.Sessions())
	sigs := conn.signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, "a9", sigs[0].To)
}

func TestDuplicateJoinDoesNotReOffer(t *testing.T) {
	m, conn, peers, _ := newTestManager(nil)
	joined, err := json.Marshal(api.UserJoinedPayload{Id: "a1", ExternalId: "admin@x", Role: api.RoleAdmin})
	require.NoError(t, err)

	m.HandlePacket(api.In{T: api.UserJoined, Payload: joined})
	m.HandlePacket(api.In{T: api.UserJoined, Payload: joined})

	assert.Equal(t, 1, m.Sessions())
	assert.Len(t, peers.created, 1)
	assert.Len(t, conn.signals(), 1)
}

func TestAnswerAndCandidateApplied(t *testing.T) {
	m, _, peers, _ := newTestManager(api.OnlineUsersPayload{
		"a1": {ExternalId: "admin@x", Role: api.RoleAdmin},
	})
	require.NoError(t, m.Enter("me@x"))
	require.Len(t, peers.created, 1)

	answer, err := api.SdpSignal("answer", "v=0 answer").Raw()
	require.NoError(t, err)
	m.OnSignal(api.SignalPayload{From: "a1", Data: answer})

	cand, err := api.CandidateSignal(api.Candidate{Candidate: "candidate:1"}).Raw()
	require.NoError(t, err)
	m.OnSignal(api.SignalPayload{From: "a1", Data: cand})

	peer := peers.created[0]
	assert.Len(t, peer.answers, 1)
	assert.Len(t, peer.candidates, 1)
}

func TestSignalFromUnknownAdminDropped(t *testing.T) {
	m, _, peers, _ := newTestManager(nil)
	require.NoError(t, m.Enter("me@x"))

	answer, err := api.SdpSignal("answer", "v=0").Raw()
	require.NoError(t, err)
	m.OnSignal(api.SignalPayload{From: "stranger", Data: answer})

	assert.Empty(t, peers.created)
	assert.Zero(t, m.Sessions())
}

func TestMuteIsIdempotent(t *testing.T) {
	m, _, _, gate := newTestManager(nil)
	var flips int
	m.OnMuteChanged = func(bool) { flips++ }

	m.HandlePacket(api.In{T: api.Mute})
	m.HandlePacket(api.In{T: api.Mute})
	m.HandlePacket(api.In{T: api.Mute})

	assert.True(t, gate.Muted())
	assert.Equal(t, 1, flips, "repeated tokens are no-ops")

	m.HandlePacket(api.In{T: api.Unmute})
	m.HandlePacket(api.In{T: api.Unmute})

	assert.False(t, gate.Muted())
	assert.Equal(t, 2, flips)
}

func TestAdminLeftClosesSession(t *testing.T) {
	m, _, peers, _ := newTestManager(api.OnlineUsersPayload{
		"a1": {ExternalId: "admin@x", Role: api.RoleAdmin},
	})
	require.NoError(t, m.Enter("me@x"))

	left, err := json.Marshal(api.UserLeftPayload{Id: "a1", ExternalId: "admin@x"})
	require.NoError(t, err)
	m.HandlePacket(api.In{T: api.UserLeft, Payload: left})

	assert.Zero(t, m.Sessions())
	assert.True(t, peers.created[0].closed)
}

func TestTeardownClosesEverything(t *testing.T) {
	m, _, peers, _ := newTestManager(api.OnlineUsersPayload{
		"a1": {ExternalId: "admin@x", Role: api.RoleAdmin},
		"a2": {ExternalId: "admin2@x", Role: api.RoleAdmin},
	})
	require.NoError(t, m.Enter("me@x"))
	require.Equal(t, 2, m.Sessions())

	m.Teardown()

	assert.Zero(t, m.Sessions())
	for _, p := range peers.created {
		assert.True(t, p.closed)
	}
}
