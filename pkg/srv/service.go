package srv

import (
	"context"
	"fmt"

	"github.com/sandevgo/archivist/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Named lets a service report a readable name in lifecycle logs.
type Named interface {
	Name() string
}

func nameOf(s Service) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Str("service", nameOf(service)).Msg("service failed to start")
			}
		}(service)
	}
}

// ShutdownServices waits for ctx to end, then stops services in reverse
// registration order so that storage outlives the transports using it.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	logger := log.FromCtx(ctx)
	for i := len(services) - 1; i >= 0; i-- {
		service := services[i]
		if err := service.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error().Err(err).Str("service", nameOf(service)).Msg("service failed to shutdown")
			continue
		}
		logger.Debug().Str("service", nameOf(service)).Msg("service stopped")
	}
}
