package api

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestUnwrap(t *testing.T) {
	raw, _ := json.Marshal(JoinRequest{ExternalId: "a@x", Role: RoleUser})
	rq := Unwrap[JoinRequest](raw)
	if rq == nil || rq.ExternalId != "a@x" || rq.Role != RoleUser {
		t.Errorf("got %+v", rq)
	}
	if Unwrap[JoinRequest]([]byte(`{"bad`)) != nil {
		t.Error("broken json must unwrap to nil")
	}
}

func TestSignalDataVerbatim(t *testing.T) {
	// whatever a client puts into the signal data must survive the
	// wrap-relay-unwrap round untouched
	in := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0\r\nextra"}}`)
	wire, err := json.Marshal(SignalRequest{To: "x", Data: in})
	if err != nil {
		t.Fatal(err)
	}
	rq := Unwrap[SignalRequest](wire)
	if rq == nil {
		t.Fatal("unwrap failed")
	}
	if string(rq.Data) != string(in) {
		t.Errorf("payload changed in flight: %s", rq.Data)
	}
	data := Unwrap[SignalData](rq.Data)
	if data == nil || data.Sdp == nil || data.Sdp.SDP != "v=0\r\nextra" {
		t.Errorf("got %+v", data)
	}
}

func TestRoleValidation(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleUser} {
		if !r.IsValid() {
			t.Errorf("%v must be valid", r)
		}
	}
	if Role("root").IsValid() {
		t.Error("unknown role must be invalid")
	}
}
