package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/migration"
)

// runMigrate dispatches the migrate subcommands.
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "up":
		withMigrator(subargs, func(mg *migration.Migrator) error { return mg.Up() })
	case "down":
		withMigrator(subargs, func(mg *migration.Migrator) error { return mg.Down() })
	case "reset":
		withMigrator(subargs, func(mg *migration.Migrator) error { return mg.Reset() })
	case "version":
		withMigrator(subargs, func(mg *migration.Migrator) error {
			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			if dirty {
				fmt.Printf("version %d (dirty)\n", version)
			} else {
				fmt.Printf("version %d\n", version)
			}
			return nil
		})
	case "steps":
		runMigrateSteps(subargs)
	case "goto":
		runMigrateTo(subargs)
	case "force":
		runMigrateForce(subargs)
	case "help", "-h", "--help":
		printMigrateUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}
}

// withMigrator builds a migrator from flags, runs fn, and exits on
// failure.
func withMigrator(args []string, fn func(*migration.Migrator) error) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	driver := fs.String("driver", "", "Database driver override (sqlite, postgres, mysql)")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dbCfg := cfg.Store.Database
	if *driver != "" {
		dbCfg.Driver = *driver
	}

	mg, err := migration.New(dbCfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer mg.Close()

	if err := fn(mg); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func runMigrateSteps(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: helium migrate steps <n>\n")
		os.Exit(1)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid step count: %s\n", args[0])
		os.Exit(1)
	}
	withMigrator(args[1:], func(mg *migration.Migrator) error {
		return mg.Steps(n)
	})
}

func runMigrateTo(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: helium migrate goto <version>\n")
		os.Exit(1)
	}
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid version number: %s\n", args[0])
		os.Exit(1)
	}
	withMigrator(args[1:], func(mg *migration.Migrator) error {
		return mg.Goto(uint(version))
	})
}

func runMigrateForce(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: helium migrate force <version>\n")
		os.Exit(1)
	}
	version, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid version number: %s\n", args[0])
		os.Exit(1)
	}
	withMigrator(args[1:], func(mg *migration.Migrator) error {
		return mg.Force(int(version))
	})
}

func printMigrateUsage() {
	fmt.Println(`Database Migration Commands

Usage:
  helium migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration
  steps     Apply n migrations (negative rolls back)
  version   Show current migration version
  goto      Migrate to a specific version
  force     Force set migration version (use with caution)
  reset     Rollback all migrations
  help      Show this help message

Options:
  --config <path>   Path to configuration file (YAML)
  --driver <name>   Database driver override (sqlite, postgres, mysql)

Examples:
  helium migrate up
  helium migrate up --config /etc/helium/config.yaml
  helium migrate goto 1
  helium migrate reset`)
}
