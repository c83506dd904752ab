package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	_ "interestingness/adapters/analyses"
	"interestingness/adapters/excel"
	"interestingness/adapters/postgres"
	"interestingness/api"
	"interestingness/app"
	"interestingness/domain/scenario"
	"interestingness/internal/config"
	"interestingness/internal/errors"
	"interestingness/internal/migration"
	"interestingness/internal/testkit"
	"interestingness/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, cleanup, err := initStore(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	defer cleanup()

	helper := scenario.NewHelper(appConfig.Analysis)
	service := app.NewAnalysisService(store, excel.NewExporter(), helper)
	server := api.NewServer(service, store)

	log.Fatal(server.Start(appConfig.Server.Port))
}

// initStore connects the configured Postgres snapshot store, running
// migrations first, and falls back to the in-memory store when no
// DATABASE_URL is configured.
func initStore(appConfig *config.Config) (ports.AnalysisStore, func(), error) {
	if appConfig.Database.URL == "" {
		log.Println("No DATABASE_URL configured, using in-memory snapshot store")
		return testkit.NewInMemoryAnalysisStore(), func() {}, nil
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "database migration failed")
	}

	log.Println("Connected to Postgres snapshot store")
	return postgres.NewSnapshotRepository(db), func() { db.Close() }, nil
}
