package main

import (
	"context"
	goflag "flag"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/console"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/os"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	conf := config.NewConsoleConfig()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.Console.Debug, "c", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	c, err := console.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("console init")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-os.ExpectTermination()
		cancel()
	}()
	if err := c.Run(ctx, conf.Console.ExternalId); err != nil {
		log.Fatal().Err(err).Msg("console run")
	}
}
