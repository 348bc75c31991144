// Package console implements the administrator application: it watches
// the relay roster page by page, keeps live media sessions only for the
// visible test-takers, and captures snapshots of their streams.
package console

import (
	"context"
	"net/url"

	"github.com/invigilo/proctord/pkg/com"
	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/monitoring"
	"github.com/invigilo/proctord/pkg/rtc"
	"github.com/invigilo/proctord/pkg/server"
	"github.com/invigilo/proctord/pkg/snapshot"
)

type Console struct {
	conf config.ConsoleConfig
	log  *logger.Logger

	conn     *com.Client
	manager  *Manager
	services *server.Services
}

func New(conf config.ConsoleConfig, log *logger.Logger) (*Console, error) {
	addr := url.URL{
		Scheme: conf.Console.Relay.Scheme(),
		Host:   conf.Console.Relay.Address,
		Path:   conf.Console.Relay.Endpoint,
	}
	conn, err := com.NewClient(addr, log)
	if err != nil {
		return nil, err
	}

	peers, err := rtc.NewApiFactory(conf.Webrtc, log)
	if err != nil {
		conn.Disconnect()
		return nil, err
	}

	archive, err := snapshot.NewStorage(conf.Snapshot, log)
	if err != nil {
		conn.Disconnect()
		return nil, err
	}
	uploader := snapshot.NewUploader(conf.Snapshot.Endpoint,
		func() string { return conf.Snapshot.Token }, log)
	pipeline := snapshot.NewPipeline(conf.Snapshot, "", nil, nil, uploader, archive, log)

	c := &Console{
		conf:     conf,
		log:      log,
		conn:     conn,
		services: server.NewServices(log),
	}
	c.manager = NewManager(conn, PionPeers(peers), conf.Console.PageSize, pipeline, log)
	conn.OnPacket(c.manager.HandlePacket)

	if conf.Console.Monitoring.IsEnabled() {
		if m := monitoring.New(conf.Console.Monitoring, "console", log); m != nil {
			c.services.Add(m)
		}
	}
	return c, nil
}

func (c *Console) Manager() *Manager { return c.manager }

// Run drives the connection until the relay drops it or ctx is done.
func (c *Console) Run(ctx context.Context, externalId string) error {
	c.services.Start()
	done := c.conn.Listen()
	if err := c.manager.Start(externalId); err != nil {
		c.Shutdown(ctx)
		return err
	}
	select {
	case <-ctx.Done():
	case <-done:
		c.log.Warn().Msg("relay connection lost")
	}
	c.Shutdown(ctx)
	return nil
}

func (c *Console) Shutdown(ctx context.Context) {
	c.manager.Teardown()
	c.conn.Disconnect()
	c.services.Shutdown(ctx)
}
