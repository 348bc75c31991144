package rtc

import (
	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// ApiFactory builds peers that share one media engine, one interceptor
// registry, and the configured ICE servers.
type ApiFactory struct {
	api  *webrtc.API
	conf webrtc.Configuration
	log  *logger.Logger
}

func NewApiFactory(conf config.Webrtc, log *logger.Logger) (*ApiFactory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, err
	}
	settings := webrtc.SettingEngine{
		LoggerFactory: logger.NewPionLogger(log, conf.IceLvl),
	}

	servers := make([]webrtc.ICEServer, 0, len(conf.IceServers))
	for _, ice := range conf.IceServers {
		server := webrtc.ICEServer{URLs: []string{ice.Urls}}
		if ice.Username != "" {
			server.Username = ice.Username
			server.Credential = ice.Credential
		}
		servers = append(servers, server)
	}

	return &ApiFactory{
		api: webrtc.NewAPI(
			webrtc.WithMediaEngine(m),
			webrtc.WithInterceptorRegistry(i),
			webrtc.WithSettingEngine(settings),
		),
		conf: webrtc.Configuration{ICEServers: servers},
		log:  log,
	}, nil
}

func (f *ApiFactory) NewPeer() (*Peer, error) {
	conn, err := f.api.NewPeerConnection(f.conf)
	if err != nil {
		return nil, err
	}
	p := &Peer{conn: conn, log: f.log}
	p.init()
	return p, nil
}
