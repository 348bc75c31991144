package api

import "github.com/goccy/go-json"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsValid() bool { return r == RoleAdmin || r == RoleUser }

type (
	// JoinRequest carries the caller-supplied identity for a fresh connection.
	JoinRequest struct {
		ExternalId string `json:"external_id"`
		Role       Role   `json:"role"`
	}
	UserInfo struct {
		ExternalId string `json:"external_id"`
		Role       Role   `json:"role"`
	}
	// OnlineUsersPayload is a copy-out presence snapshot keyed by connection id.
	OnlineUsersPayload map[string]UserInfo

	UserJoinedPayload struct {
		Id         string `json:"id"`
		ExternalId string `json:"external_id"`
		Role       Role   `json:"role"`
	}
	UserLeftPayload struct {
		Id         string `json:"id"`
		ExternalId string `json:"external_id"`
	}

	// SignalRequest addresses an opaque negotiation payload to one connection.
	SignalRequest struct {
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	// SignalPayload is the delivered form, tagged with the sender id.
	SignalPayload struct {
		From string          `json:"from"`
		Data json.RawMessage `json:"data"`
	}

	// ControlRequest targets a mute/unmute control token at one connection.
	ControlRequest struct {
		To string `json:"to"`
	}
)
