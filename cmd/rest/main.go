package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"convohealth-be/internal/bootstrap"
	"convohealth-be/internal/config"
	"convohealth-be/internal/server"
	"convohealth-be/internal/tracer"
	"convohealth-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	srv := server.New(cfg, container)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Background workers and the HTTP server share one lifetime.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})

	if container.NotificationService != nil {
		g.Go(func() error {
			return container.NotificationService.Start(gctx)
		})
	}

	g.Go(func() error {
		return sweepExpiredNotes(gctx, container, cfg.Retention.SweepInterval)
	})

	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}

// sweepExpiredNotes purges notes past their retention window on a fixed
// interval, once at startup and then on every tick.
func sweepExpiredNotes(ctx context.Context, c *bootstrap.Container, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.SoapNoteService.PurgeExpired(ctx); err != nil {
			c.Logger.Warn("Sweeper", "Expired note sweep failed", map[string]interface{}{"error": err.Error()})
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
