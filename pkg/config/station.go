package config

import "flag"

type StationConfig struct {
	Station  StationSection `fig:"station"`
	Webrtc   Webrtc         `fig:"webrtc"`
	Snapshot Snapshot       `fig:"snapshot"`
	Version  Version        `fig:"version"`
}

type StationSection struct {
	Debug bool  `fig:"debug"`
	Relay Relay `fig:"relay"`
	// ExternalId is the test-taker identity announced to the relay,
	// normally an email handed over by the assessment flow.
	ExternalId string `fig:"externalId"`
	Codec      string `fig:"codec" default:"vp8"`
}

var stationConfigPath string

func NewStationConfig() (conf StationConfig) {
	if err := LoadConfig(&conf, stationConfigPath); err != nil {
		panic(err)
	}
	return
}

func (c *StationConfig) ParseFlags() {
	flag.StringVar(&c.Station.Relay.Address, "relay", c.Station.Relay.Address, "Relay server address (host:port)")
	flag.StringVar(&c.Station.ExternalId, "id", c.Station.ExternalId, "Test-taker external id")
	flag.StringVar(&stationConfigPath, "conf", stationConfigPath, "Set custom configuration file path")
	flag.Parse()
}
