package config

import (
	"encoding/json"
	"flag"
	"time"
)

type Server struct {
	Address string `fig:"address" default:":8000"`
	Https   bool   `fig:"https"`
	Tls     struct {
		Address   string `fig:"address"`
		Domain    string `fig:"domain"`
		HttpsKey  string `fig:"httpsKey"`
		HttpsCert string `fig:"httpsCert"`
	} `fig:"tls"`
}

func (s *Server) WithFlags() {
	flag.StringVar(&s.Address, "address", s.Address, "HTTP server address (host:port)")
	flag.StringVar(&s.Tls.Address, "httpsAddress", s.Tls.Address, "HTTPS server address (host:port)")
	flag.StringVar(&s.Tls.HttpsKey, "httpsKey", s.Tls.HttpsKey, "HTTPS key")
	flag.StringVar(&s.Tls.HttpsCert, "httpsCert", s.Tls.HttpsCert, "HTTPS certificate")
}

func (s *Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}

type Monitoring struct {
	Port             int    `fig:"port"`
	URLPrefix        string `fig:"urlPrefix"`
	MetricEnabled    bool   `fig:"metricEnabled"`
	ProfilingEnabled bool   `fig:"profilingEnabled"`
}

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

type IceServer struct {
	Urls       string `fig:"urls" json:"urls"`
	Username   string `fig:"username" json:"username,omitempty"`
	Credential string `fig:"credential" json:"credential,omitempty"`
}

type Webrtc struct {
	IceServers []IceServer `fig:"iceServers"`
	IceLvl     int         `fig:"iceLvl" default:"5"`
}

func (w *Webrtc) IceServersJson() string {
	b, err := json.Marshal(w.IceServers)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Relay is the client-side view of the rendezvous point.
type Relay struct {
	Address  string `fig:"address" default:"localhost:8000"`
	Endpoint string `fig:"endpoint" default:"/ws"`
	Secure   bool   `fig:"secure"`
}

func (r *Relay) Scheme() string {
	if r.Secure {
		return "wss"
	}
	return "ws"
}

// Snapshot configures the capture-and-upload pipeline.
type Snapshot struct {
	Interval time.Duration `fig:"interval" default:"3m"`
	Endpoint string        `fig:"endpoint"`
	Token    string        `fig:"token"`
	// archive sink: "" | "local" | "gcs"
	Provider string `fig:"provider"`
	Folder   string `fig:"folder" default:"snapshots"`
	Bucket   string `fig:"bucket"`
	MaxWidth int    `fig:"maxWidth" default:"1280"`
	Quality  int    `fig:"quality" default:"80"`
}

type Version int
