// Command intake loads a YAML seed of venues and weekly events into the
// configured store.
//
//	intake -file seeds/londrina.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/parish-events/internal/config"
	"github.com/iliyamo/parish-events/internal/database"
	"github.com/iliyamo/parish-events/internal/intake"
)

func main() {
	path := flag.String("file", "", "path to the YAML seed file")
	flag.Parse()
	if *path == "" {
		slog.Error("missing -file")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.LoadDatabase()

	db, dialect, err := database.Open(cfg.DBDriver, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.SQLitePath)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	seed, err := intake.LoadFile(*path)
	if err != nil {
		slog.Error("load seed failed", "file", *path, "error", err)
		os.Exit(1)
	}
	res, err := intake.Apply(ctx, db, seed, cfg.DefaultVenueTZ, slog.Default())
	if err != nil {
		slog.Error("intake failed", "venues", res.Venues, "events", res.Events, "error", err)
		os.Exit(1)
	}
	slog.Info("intake complete", "venues", res.Venues, "events", res.Events, "skipped", res.Skipped)
}
