package main

import (
	"context"
	goflag "flag"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/invigilo/proctord/pkg/os"
	"github.com/invigilo/proctord/pkg/station"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	conf := config.NewStationConfig()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.Station.Debug, "s", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	// A real camera backend plugs in here; the pattern device keeps the
	// whole flow runnable without one.
	capture := media.NewPatternCapture(640, 480, 15)

	s, err := station.New(conf, capture, log)
	if err != nil {
		log.Fatal().Err(err).Msg("station init")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-os.ExpectTermination()
		cancel()
	}()
	if err := s.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("station run")
	}
}
