package config

import "flag"

type ConsoleConfig struct {
	Console  ConsoleSection `fig:"console"`
	Webrtc   Webrtc         `fig:"webrtc"`
	Snapshot Snapshot       `fig:"snapshot"`
	Version  Version        `fig:"version"`
}

type ConsoleSection struct {
	Debug bool  `fig:"debug"`
	Relay Relay `fig:"relay"`
	// ExternalId is the operator identity announced to the relay.
	ExternalId string     `fig:"externalId" default:"admin"`
	PageSize   int        `fig:"pageSize" default:"20"`
	Monitoring Monitoring `fig:"monitoring"`
}

var consoleConfigPath string

func NewConsoleConfig() (conf ConsoleConfig) {
	if err := LoadConfig(&conf, consoleConfigPath); err != nil {
		panic(err)
	}
	return
}

func (c *ConsoleConfig) ParseFlags() {
	flag.StringVar(&c.Console.Relay.Address, "relay", c.Console.Relay.Address, "Relay server address (host:port)")
	flag.StringVar(&c.Console.ExternalId, "id", c.Console.ExternalId, "Operator external id")
	flag.IntVar(&c.Console.PageSize, "pageSize", c.Console.PageSize, "Visible roster page size")
	flag.StringVar(&consoleConfigPath, "conf", consoleConfigPath, "Set custom configuration file path")
	flag.Parse()
}
