// Command migrate applies or rolls back the schema under migrations/
// against the database named in config/config.yaml.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"ride-hail/internal/general/config"
	"ride-hail/internal/general/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	direction := flag.String("direction", "up", "up | down | steps:<n>")
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	migrationsDir := flag.String("path", "migrations", "path to migration files")
	flag.Parse()

	log := logger.New("migrate")
	ctx := context.Background()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "failed to load configuration", err, nil)
		os.Exit(1)
	}

	dsn := buildDSN(cfg)

	m, err := migrate.New("file://"+*migrationsDir, dsn)
	if err != nil {
		log.Error(ctx, "migrate_init_failed", "failed to initialize migrator", err, nil)
		os.Exit(1)
	}
	defer m.Close()

	if err := run(m, *direction); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error(ctx, "migrate_failed", "migration run failed", err, map[string]any{"direction": *direction})
		os.Exit(1)
	}

	log.Info(ctx, "migrate_done", "migrations applied", map[string]any{"direction": *direction})
}

func run(m *migrate.Migrate, direction string) error {
	switch direction {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	default:
		var n int
		if _, err := fmt.Sscanf(direction, "steps:%d", &n); err != nil {
			return fmt.Errorf("unrecognized direction %q (want up, down, or steps:<n>)", direction)
		}
		return m.Steps(n)
	}
}

// buildDSN mirrors postgres.NewPool's DSN construction so the migrator
// targets the exact same database the services connect to.
func buildDSN(cfg *config.Config) string {
	u := &url.URL{
		Scheme: "pgx5",
		Host:   net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port)),
		Path:   "/" + cfg.Database.Name,
		User:   url.UserPassword(cfg.Database.User, cfg.Database.Password),
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}
