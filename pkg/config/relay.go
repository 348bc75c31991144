package config

import "flag"

type RelayConfig struct {
	Relay   RelaySection `fig:"relay"`
	Version Version      `fig:"version"`
}

type RelaySection struct {
	Debug      bool       `fig:"debug"`
	Server     Server     `fig:"server"`
	Monitoring Monitoring `fig:"monitoring"`
}

// allows custom config path
var relayConfigPath string

func NewRelayConfig() (conf RelayConfig) {
	if err := LoadConfig(&conf, relayConfigPath); err != nil {
		panic(err)
	}
	return
}

func (c *RelayConfig) ParseFlags() {
	c.Relay.Server.WithFlags()
	flag.IntVar(&c.Relay.Monitoring.Port, "monitoring.port", c.Relay.Monitoring.Port, "Monitoring server port")
	flag.StringVar(&relayConfigPath, "conf", relayConfigPath, "Set custom configuration file path")
	flag.Parse()
}
