// Package api defines the wire API shared by the relay, console, and station applications.
//
// Each API call (request and response) is a JSON-encoded "packet" of the following structure:
//
//	id - (optional) a unique packet id used for request/response correlation;
//	 t - (required) one of the predefined unique packet types;
//	 p - (optional) packet payload with arbitrary data.
//
// The packets differentiate by their predefined types with which it is possible
// to unwrap the payload into distinct request/response data structures.
// Negotiation payloads (SDP, ICE) are relayed verbatim and are never
// interpreted by the relay itself.
package api

import (
	"fmt"

	"github.com/goccy/go-json"
)

type PT uint8

// Packet codes:
//
//	1x - presence
//	2x - negotiation relay
//	3x - control plane
const (
	Join           PT = 10
	GetOnlineUsers PT = 11
	OnlineUsers    PT = 12
	UserJoined     PT = 13
	UserLeft       PT = 14
	Signal         PT = 20
	MuteUser       PT = 30
	UnmuteUser     PT = 31
	Mute           PT = 32
	Unmute         PT = 33
)

func (p PT) String() string {
	switch p {
	case Join:
		return "Join"
	case GetOnlineUsers:
		return "GetOnlineUsers"
	case OnlineUsers:
		return "OnlineUsers"
	case UserJoined:
		return "UserJoined"
	case UserLeft:
		return "UserLeft"
	case Signal:
		return "Signal"
	case MuteUser:
		return "MuteUser"
	case UnmuteUser:
		return "UnmuteUser"
	case Mute:
		return "Mute"
	case Unmute:
		return "Unmute"
	default:
		return fmt.Sprintf("Unknown (%v)", uint8(p))
	}
}

type In struct {
	Id      string          `json:"id,omitempty"`
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // should be json.RawMessage for 2-pass unmarshal
}

type Out struct {
	Id      string `json:"id,omitempty"`
	T       uint8  `json:"t"`
	Payload any    `json:"p,omitempty"`
}

var ErrMalformed = fmt.Errorf("malformed")

// Unwrap unmarshalls a packet payload into T, nil on error.
func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}

func UnwrapChecked[T any](bytes []byte, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return Unwrap[T](bytes), nil
}
