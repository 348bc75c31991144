// Package station implements the test-taker application: it opens the
// local capture, announces itself to the relay, streams to every online
// admin, obeys mute tokens, and uploads periodic snapshots.
package station

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/invigilo/proctord/pkg/com"
	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/invigilo/proctord/pkg/rtc"
	"github.com/invigilo/proctord/pkg/snapshot"
	"github.com/pion/webrtc/v4"
)

type Station struct {
	conf config.StationConfig
	log  *logger.Logger

	capture media.Capture
	video   *webrtc.TrackLocalStaticSample
	audio   *media.GatedAudioTrack
	peers   *rtc.ApiFactory

	conn    *com.Client
	manager *Manager

	pipeline *snapshot.Pipeline
	actx     atomic.Pointer[snapshot.Context]
}

func New(conf config.StationConfig, capture media.Capture, log *logger.Logger) (*Station, error) {
	video, err := media.NewVideoTrack(conf.Station.Codec)
	if err != nil {
		return nil, err
	}
	audio, err := media.NewGatedAudioTrack()
	if err != nil {
		return nil, err
	}
	peers, err := rtc.NewApiFactory(conf.Webrtc, log)
	if err != nil {
		return nil, err
	}

	s := &Station{
		conf:    conf,
		log:     log,
		capture: capture,
		video:   video,
		audio:   audio,
		peers:   peers,
	}
	archive, err := snapshot.NewStorage(conf.Snapshot, log)
	if err != nil {
		return nil, err
	}
	uploader := snapshot.NewUploader(conf.Snapshot.Endpoint,
		func() string { return conf.Snapshot.Token }, log)
	s.pipeline = snapshot.NewPipeline(conf.Snapshot, conf.Station.ExternalId,
		capture, s.actx.Load, uploader, archive, log)
	return s, nil
}

// VideoTrack is the outgoing video sink for the encoder feeding this station.
func (s *Station) VideoTrack() *webrtc.TrackLocalStaticSample { return s.video }

// AudioTrack is the outgoing audio sink; its gate applies the mute tokens.
func (s *Station) AudioTrack() *media.GatedAudioTrack { return s.audio }

func (s *Station) Manager() *Manager { return s.manager }

// SetContext installs the assessment context the next snapshots are
// tagged with; nil clears it.
func (s *Station) SetContext(actx *snapshot.Context) { s.actx.Store(actx) }

// Run enters the assessment and serves until ctx is done or the relay
// drops the connection. The capture device opens first: when it fails,
// no connection is made and no session exists anywhere.
func (s *Station) Run(ctx context.Context) error {
	if err := s.capture.Start(); err != nil {
		s.log.Error().Err(err).Msg("capture open")
		return err
	}
	defer s.capture.Stop()

	addr := url.URL{
		Scheme: s.conf.Station.Relay.Scheme(),
		Host:   s.conf.Station.Relay.Address,
		Path:   s.conf.Station.Relay.Endpoint,
	}
	conn, err := com.NewClient(addr, s.log)
	if err != nil {
		return err
	}
	s.conn = conn
	s.manager = NewManager(conn, PionPeers(s.peers, s.video, s.audio), s.audio, s.log)
	conn.OnPacket(s.manager.HandlePacket)
	done := conn.Listen()

	if err := s.manager.Enter(s.conf.Station.ExternalId); err != nil {
		s.teardown()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pipeline.Run(runCtx)

	select {
	case <-ctx.Done():
	case <-done:
		s.log.Warn().Msg("relay connection lost")
	}
	s.teardown()
	return nil
}

func (s *Station) teardown() {
	if s.manager != nil {
		s.manager.Teardown()
	}
	s.conn.Disconnect()
}
