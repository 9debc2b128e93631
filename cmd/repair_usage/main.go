// Command repair_usage rescales inflated recording durations for one or more
// owners and prints the before/after totals.
//
//	repair_usage <user-id> [<user-id>...]
package main

import (
	"context"
	"os"
	"time"

	"convohealth-be/internal/bootstrap"
	"convohealth-be/internal/config"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/internal/service"
	"convohealth-be/pkg/database"
	"convohealth-be/pkg/metrics"
	"convohealth-be/pkg/usage"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		color.Yellow("usage: repair_usage <user-id> [<user-id>...]")
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	// Same backend selection as the server, so repaired totals are the ones
	// it reads.
	rdb := bootstrap.ConnectRedis(cfg.App.RedisURL, log)
	if rdb != nil {
		defer rdb.Close()
	}

	factory := unitofwork.NewRepositoryFactory(db)
	svc := service.NewUsageService(
		bootstrap.NewPreferenceBackend(factory, rdb),
		service.NewDurationStore(factory),
		usage.Limits{Minutes: cfg.Usage.TrialMinutes, Days: cfg.Usage.TrialDays, WarnRatio: cfg.Usage.WarnRatio},
		nil,
		metrics.DefaultMetrics,
		log,
		time.Now,
	)

	failed := false
	for _, arg := range os.Args[1:] {
		owner, err := uuid.Parse(arg)
		if err != nil {
			color.Red("%s: not a user id", arg)
			failed = true
			continue
		}

		report, err := svc.Repair(context.Background(), owner)
		if err != nil {
			color.Red("%s: repair failed: %v", owner, err)
			failed = true
			continue
		}

		if report.Repaired == 0 {
			color.Green("%s: %d session(s) scanned, nothing to repair (%.2f min)", owner, report.Scanned, report.Total)
			continue
		}
		color.Yellow("%s: repaired %d of %d session(s), %.2f -> %.2f min",
			owner, report.Repaired, report.Scanned, report.PreviousTotal, report.Total)
	}

	if failed {
		// os.Exit skips deferred calls.
		_ = log.Sync()
		os.Exit(1)
	}
}
