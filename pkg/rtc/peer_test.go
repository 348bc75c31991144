package rtc

import (
	"testing"

	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/pion/webrtc/v4"
)

func newTestPair(t *testing.T) (offerer, answerer *Peer) {
	t.Helper()
	f, err := NewApiFactory(config.Webrtc{IceLvl: 5}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	offerer, err = f.NewPeer()
	if err != nil {
		t.Fatal(err)
	}
	answerer, err = f.NewPeer()
	if err != nil {
		t.Fatal(err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "camera")
	if err != nil {
		t.Fatal(err)
	}
	if err = offerer.AddTrack(track); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = offerer.Close()
		_ = answerer.Close()
	})
	return offerer, answerer
}

func hostCandidate() api.Candidate {
	line := uint16(0)
	return api.Candidate{
		Candidate:     "candidate:1 1 udp 2113937151 192.168.0.1 54400 typ host",
		SDPMLineIndex: &line,
	}
}

func TestNegotiationRound(t *testing.T) {
	offerer, answerer := newTestPair(t)

	if s := offerer.State(); s != StateNew {
		t.Fatalf("fresh peer state %v, want new", s)
	}

	offer, err := offerer.Offer()
	if err != nil {
		t.Fatal(err)
	}
	if s := offerer.State(); s != StateOffering {
		t.Fatalf("state after offer %v, want offering", s)
	}
	if offer.Type != "offer" || offer.SDP == "" {
		t.Fatalf("bad offer %+v", offer)
	}

	answer, err := answerer.Answer(offer)
	if err != nil {
		t.Fatal(err)
	}
	if s := answerer.State(); s != StateConnected {
		t.Fatalf("answerer state %v, want connected", s)
	}
	if answer.Type != "answer" || answer.SDP == "" {
		t.Fatalf("bad answer %+v", answer)
	}

	if err = offerer.SetAnswer(answer); err != nil {
		t.Fatal(err)
	}
	if s := offerer.State(); s != StateConnected {
		t.Fatalf("offerer state %v, want connected", s)
	}
}

func TestEarlyCandidatesArePooled(t *testing.T) {
	offerer, answerer := newTestPair(t)

	// the relay gives no ordering across senders, a candidate can beat
	// the offer to the answerer
	if err := answerer.AddCandidate(hostCandidate()); err != nil {
		t.Fatal(err)
	}
	answerer.mu.Lock()
	pooled := len(answerer.pending)
	answerer.mu.Unlock()
	if pooled != 1 {
		t.Fatalf("got %d pooled candidates, want 1", pooled)
	}

	offer, err := offerer.Offer()
	if err != nil {
		t.Fatal(err)
	}
	if _, err = answerer.Answer(offer); err != nil {
		t.Fatal(err)
	}

	answerer.mu.Lock()
	pooled = len(answerer.pending)
	answerer.mu.Unlock()
	if pooled != 0 {
		t.Errorf("got %d pooled candidates after answer, want 0 (flushed)", pooled)
	}

	// with the remote description applied, candidates go straight through
	if err = answerer.AddCandidate(hostCandidate()); err != nil {
		t.Errorf("late candidate: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	offerer, _ := newTestPair(t)

	if err := offerer.Close(); err != nil {
		t.Fatal(err)
	}
	if err := offerer.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s := offerer.State(); s != StateClosed {
		t.Fatalf("state %v, want closed", s)
	}

	if _, err := offerer.Offer(); err != ErrClosed {
		t.Errorf("offer after close: %v, want ErrClosed", err)
	}
	if err := offerer.SetAnswer(api.Sdp{Type: "answer"}); err != ErrClosed {
		t.Errorf("set answer after close: %v, want ErrClosed", err)
	}
	if err := offerer.AddCandidate(hostCandidate()); err != ErrClosed {
		t.Errorf("candidate after close: %v, want ErrClosed", err)
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateNew:       "new",
		StateOffering:  "offering",
		StateAnswering: "answering",
		StateConnected: "connected",
		StateClosed:    "closed",
		State(42):      "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("%d: got %q, want %q", s, s.String(), want)
		}
	}
}
