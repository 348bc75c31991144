package main

import (
	"context"
	goflag "flag"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/os"
	"github.com/invigilo/proctord/pkg/relay"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	conf := config.NewRelayConfig()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.Relay.Debug, "r", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	r, err := relay.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("relay init")
	}
	r.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		r.Shutdown(ctx)
	}()
	<-os.ExpectTermination()
	cancel()
}
