// Command sweep_expired purges SOAP notes whose retention window has closed.
// The REST server runs the same sweep on a ticker; this is for cron hosts.
package main

import (
	"context"
	"os"
	"time"

	"convohealth-be/internal/config"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/internal/service"
	"convohealth-be/pkg/database"
	"convohealth-be/pkg/metrics"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	svc := service.NewSoapNoteService(
		unitofwork.NewRepositoryFactory(db),
		nil,
		metrics.DefaultMetrics,
		logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction()),
		time.Now,
	)

	color.Cyan("Purging expired SOAP notes...")
	res, err := svc.PurgeExpired(context.Background())
	if err != nil {
		color.Red("Sweep failed: %v", err)
		os.Exit(1)
	}
	color.Green("Deleted %d note(s) expired before %s", res.Deleted, res.At.Format(time.RFC3339))
}
