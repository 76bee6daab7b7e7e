package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ihubtech/testportal-backend/internal/config"
)

// Schema migration CLI: up, down, version, force <version>.
func main() {
	dir := flag.String("path", "migrations", "directory containing migration files")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open migrations: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "up":
		step(m.Up, "all pending migrations applied")
	case "down":
		step(m.Down, "all migrations rolled back")
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("read version: %v", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force needs a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("parse version: %v", err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("force: %v", err)
		}
		fmt.Printf("forced version to %d\n", v)
	default:
		usage()
	}
}

func step(run func() error, done string) {
	if err := run(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("migrate: %v", err)
	}
	fmt.Println(done)
}

func usage() {
	fmt.Println("Usage: migrate [-path <dir>] <up|down|version|force <version>>")
	flag.PrintDefaults()
}
