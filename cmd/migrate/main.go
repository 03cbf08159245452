package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"docvault/internal/config"
	"docvault/internal/db"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|status]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if command == "down" && cfg.IsProduction() {
		log.Fatal("BLOCKED: refusing to roll back migrations in production")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	switch command {
	case "up":
		err = db.RunMigrations(conn, cfg.TablePrefix)
	case "down":
		err = db.MigrateDown(conn, cfg.TablePrefix)
	case "status":
		err = db.Status(conn, cfg.TablePrefix)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
}
