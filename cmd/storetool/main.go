package main

import (
	"context"
	"database/sql"
	"flag"
	"ratlogger/internal/adapters/cache"
	"ratlogger/internal/adapters/repositories"
	"ratlogger/internal/config"
	"ratlogger/internal/platform/db"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/ports"
	"strings"

	"github.com/joho/godotenv"
)

// storetool prepares the SQL store used for client state: it creates the
// schema and can preload the sighting snapshot.
func main() {
	_ = godotenv.Load()
	logging.Init(logging.Config{Level: config.Get("RATLOGGER_LOG_LEVEL", "info"), Format: "console"})
	log := logging.Logger()

	driver := flag.String("driver", config.Get("RATLOGGER_STORE_DRIVER", "sqlite"), "sqlite or postgres")
	path := flag.String("path", config.Get("RATLOGGER_STORE_PATH", "data/ratlogger.db"), "SQLite file")
	databaseURL := flag.String("database-url", config.Get("DATABASE_URL", ""), "Postgres connection URL")
	namespace := flag.String("namespace", config.Get("RATLOGGER_STORE_NAMESPACE", "default"), "Client state namespace")
	seedPath := flag.String("seed", config.Get("SEED_PATH", ""), "JSON file to load into the sighting snapshot")
	flag.Parse()

	ctx := context.Background()

	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)
	switch *driver {
	case "sqlite":
		conn, err = db.OpenSqlite(*path)
		dialect = repositories.DialectSqlite
	case "postgres":
		if strings.TrimSpace(*databaseURL) == "" {
			log.Fatal().Msg("DATABASE_URL is required for postgres")
		}
		conn, err = db.Open(*databaseURL)
		dialect = repositories.DialectPostgres
	default:
		log.Fatal().Str("driver", *driver).Msg("unsupported driver")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn, dialect, *namespace, *seedPath); err != nil {
		log.Fatal().Err(err).Msg("store setup failed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, namespace, seedPath string) error {
	log := logging.Logger()

	log.Info().Str("dialect", string(dialect)).Msg("initializing schema")
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return err
	}
	log.Info().Msg("schema ready")

	if seedPath == "" {
		return nil
	}

	var snapshot ports.SnapshotCache
	if dialect == repositories.DialectPostgres {
		snapshot = cache.NewSQLSightingCache(conn, namespace)
	} else {
		snapshot = cache.NewSqliteSightingCache(conn, namespace)
	}

	log.Info().Str("path", seedPath).Msg("seeding sighting snapshot")
	n, err := repositories.SeedSnapshotFromJSON(ctx, snapshot, seedPath)
	if err != nil {
		return err
	}
	log.Info().Int("sightings", n).Msg("seeding complete")

	return nil
}
