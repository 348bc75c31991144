package api

import "github.com/goccy/go-json"

// SignalData is the client-side view of a relayed negotiation payload:
// exactly one of Sdp or Candidate is set.
type SignalData struct {
	Sdp       *Sdp       `json:"sdp,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

type Sdp struct {
	Type string `json:"type"` // offer | answer
	SDP  string `json:"sdp"`
}

type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

func (d SignalData) Raw() (json.RawMessage, error) { return json.Marshal(d) }

func SdpSignal(kind, sdp string) SignalData {
	return SignalData{Sdp: &Sdp{Type: kind, SDP: sdp}}
}

func CandidateSignal(c Candidate) SignalData { return SignalData{Candidate: &c} }
