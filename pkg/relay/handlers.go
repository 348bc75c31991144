package relay

import (
	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/com"
)

// handleJoin upserts the endpoint identity and announces it to everyone else.
func (h *Hub) handleJoin(ep *endpoint, in api.In) {
	rq := api.Unwrap[api.JoinRequest](in.Payload)
	if rq == nil || !rq.Role.IsValid() {
		h.log.Warn().Str("cid", ep.id).Msg("malformed join")
		return
	}
	h.registry.Join(ep.id, Identity{ExternalId: rq.ExternalId, Role: rq.Role})
	metrics.joins.WithLabelValues(string(rq.Role)).Inc()
	h.log.Info().Str("cid", ep.id).Str("uid", rq.ExternalId).Str("role", string(rq.Role)).Msg("join")
	h.broadcast(ep.id, api.UserJoined, api.UserJoinedPayload{
		Id:         ep.id,
		ExternalId: rq.ExternalId,
		Role:       rq.Role,
	})
}

// handleListOnline routes the presence snapshot back to the requester only.
func (h *Hub) handleListOnline(ep *endpoint, in api.In) {
	ep.Route(in, h.registry.Snapshot())
}

// handleSignal forwards the opaque payload to its target, tagged with the
// sender id. Unknown targets are dropped silently: delivery is best-effort
// and the negotiation protocol above must tolerate the loss.
func (h *Hub) handleSignal(ep *endpoint, in api.In) {
	rq := api.Unwrap[api.SignalRequest](in.Payload)
	if rq == nil || rq.To == "" {
		h.log.Warn().Str("cid", ep.id).Msg("malformed signal")
		return
	}
	target, err := h.endpoints.Find(rq.To)
	if err == com.ErrNotFound {
		metrics.dropped.WithLabelValues("signal").Inc()
		h.log.Debug().Str("cid", ep.id).Str("to", rq.To).Msg("signal to unknown target dropped")
		return
	}
	metrics.relayed.WithLabelValues("signal").Inc()
	target.Notify(api.Signal, api.SignalPayload{From: ep.id, Data: rq.Data})
}

// handleControl delivers a fixed control token (mute/unmute) to one target
// with the same best-effort semantics as handleSignal.
func (h *Hub) handleControl(ep *endpoint, in api.In, kind api.PT) {
	rq := api.Unwrap[api.ControlRequest](in.Payload)
	if rq == nil || rq.To == "" {
		h.log.Warn().Str("cid", ep.id).Msg("malformed control")
		return
	}
	target, err := h.endpoints.Find(rq.To)
	if err == com.ErrNotFound {
		metrics.dropped.WithLabelValues("control").Inc()
		h.log.Debug().Str("cid", ep.id).Str("to", rq.To).Msgf("%v to unknown target dropped", kind)
		return
	}
	metrics.relayed.WithLabelValues("control").Inc()
	h.log.Info().Str("cid", ep.id).Str("to", rq.To).Msgf("%v", kind)
	target.Notify(kind, nil)
}
