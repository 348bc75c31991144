package server

import (
	"context"

	"github.com/invigilo/proctord/pkg/logger"
)

type Server interface {
	Run() error
	Shutdown(ctx context.Context) error
}

type Services struct {
	list []Server
	log  *logger.Logger
}

func NewServices(log *logger.Logger) *Services { return &Services{log: log} }

func (svs *Services) Add(s Server) *Services {
	if s != nil {
		svs.list = append(svs.list, s)
	}
	return svs
}

func (svs *Services) Start() {
	for _, s := range svs.list {
		s := s
		go func() {
			if err := s.Run(); err != nil {
				svs.log.Error().Err(err).Msgf("failed to start service [%s]", s)
			}
		}()
	}
}

func (svs *Services) Shutdown(ctx context.Context) {
	for _, s := range svs.list {
		if err := s.Shutdown(ctx); err != nil {
			svs.log.Error().Err(err).Msgf("failed to stop service [%s]", s)
		}
	}
}
