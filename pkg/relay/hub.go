package relay

import (
	"net/http"

	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/com"
	"github.com/invigilo/proctord/pkg/logger"
)

// messenger is what the hub needs from one connected endpoint.
// *com.Client satisfies it; tests plug in fakes.
type messenger interface {
	Notify(t api.PT, payload any)
	Route(in api.In, payload any)
	Disconnect()
}

type endpoint struct {
	messenger
	id string
}

// Hub is the rendezvous point: a presence registry plus an addressed
// packet bus. It carries no negotiation semantics; signal payloads pass
// through verbatim.
type Hub struct {
	registry  *Registry
	endpoints com.Map[string, *endpoint]
	log       *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		registry:  NewRegistry(),
		endpoints: com.NewMap[string, *endpoint](),
		log:       log,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// handleConnection serves one websocket endpoint until it disconnects.
func (h *Hub) handleConnection(w http.ResponseWriter, r *http.Request) {
	client, err := com.NewServerClient(w, r, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade fail")
		return
	}
	ep := &endpoint{messenger: client, id: client.Id().String()}
	client.OnPacket(func(in api.In) { h.route(ep, in) })
	h.attach(ep)
	defer h.detach(ep)
	<-client.Listen()
}

func (h *Hub) attach(ep *endpoint) {
	h.endpoints.Put(ep.id, ep)
	metrics.online.Inc()
	h.log.Debug().Str("cid", ep.id).Msg("endpoint connected")
}

// detach removes the endpoint and, when it had joined, broadcasts user-left
// to everyone still connected.
func (h *Hub) detach(ep *endpoint) {
	h.endpoints.RemoveByKey(ep.id)
	metrics.online.Dec()
	identity, joined := h.registry.Remove(ep.id)
	h.log.Info().Str("cid", ep.id).Str("uid", identity.ExternalId).Msg("endpoint disconnected")
	if !joined {
		return
	}
	h.broadcast(ep.id, api.UserLeft, api.UserLeftPayload{
		Id:         ep.id,
		ExternalId: identity.ExternalId,
	})
}

// broadcast notifies every endpoint except the origin one.
func (h *Hub) broadcast(exceptId string, t api.PT, payload any) {
	h.endpoints.ForEach(func(other *endpoint) {
		if other.id != exceptId {
			other.Notify(t, payload)
		}
	})
}

func (h *Hub) route(ep *endpoint, in api.In) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Str("cid", ep.id).Msgf("recovered: %v", r)
		}
	}()
	switch in.T {
	case api.Join:
		h.handleJoin(ep, in)
	case api.GetOnlineUsers:
		h.handleListOnline(ep, in)
	case api.Signal:
		h.handleSignal(ep, in)
	case api.MuteUser:
		h.handleControl(ep, in, api.Mute)
	case api.UnmuteUser:
		h.handleControl(ep, in, api.Unmute)
	default:
		h.log.Warn().Str("cid", ep.id).Msgf("unknown packet %v", in.T)
	}
}
