package relay

import (
	"context"
	"net/http"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/monitoring"
	"github.com/invigilo/proctord/pkg/network/httpx"
	"github.com/invigilo/proctord/pkg/server"
)

// Relay bundles the signaling hub with its HTTP front and optional
// monitoring into one runnable service set.
type Relay struct {
	conf     config.RelayConfig
	log      *logger.Logger
	hub      *Hub
	services *server.Services
}

func New(conf config.RelayConfig, log *logger.Logger) (*Relay, error) {
	hub := NewHub(log)

	h, err := httpx.NewServer(
		conf.Relay.Server.GetAddr(),
		func(serv *httpx.Server) http.Handler {
			mux := serv.Mux()
			mux.HandleFunc("/ws", hub.handleConnection)
			return mux
		},
		httpx.WithServerConfig(conf.Relay.Server),
		httpx.WithPortRoll(true),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	services := server.NewServices(log).Add(h)
	if conf.Relay.Monitoring.IsEnabled() {
		if m := monitoring.New(conf.Relay.Monitoring, "relay", log); m != nil {
			services.Add(m)
		}
	}

	return &Relay{conf: conf, log: log, hub: hub, services: services}, nil
}

func (r *Relay) Hub() *Hub { return r.hub }

func (r *Relay) Run() { r.services.Start() }

func (r *Relay) Shutdown(ctx context.Context) { r.services.Shutdown(ctx) }
