// Command migrate applies, rolls back and reports schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"blogly/internal/config"
	"blogly/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate <up|down [version]|status|plan>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd == "plan" {
		plan, err := database.PlanSchema(cfg)
		if err != nil {
			return err
		}
		log.Printf("env=%s driver=%s mode=%s migrations=%t automigrate=%t repair_missing=%t",
			cfg.Env, cfg.DBDriver, plan.Mode, plan.RunMigrations, plan.AutoMigrate, plan.RepairMissing)
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch cmd {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			log.Println("schema already up to date")
		}
		for _, m := range applied {
			log.Printf("applied %s", m)
		}
	case "down":
		version := 0
		if flag.NArg() > 1 {
			if version, err = strconv.Atoi(flag.Arg(1)); err != nil {
				return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
			}
		}
		m, err := migrator.Down(ctx, version)
		if err != nil {
			return err
		}
		log.Printf("rolled back %s", m)
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(status)
	default:
		return usage()
	}

	return nil
}

func printStatus(s *database.MigrationStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "dialect\t%s\n\n", s.Dialect)
	fmt.Fprintln(w, "MIGRATION\tAPPLIED AT")
	for _, l := range s.Applied {
		fmt.Fprintf(w, "%06d_%s\t%s\n", l.Version, l.Name, l.AppliedAt.Format("2006-01-02 15:04:05Z07:00"))
	}
	for _, m := range s.Pending {
		fmt.Fprintf(w, "%s\tpending\n", m)
	}

	fmt.Fprintln(w, "\nTABLE\tROWS")
	for _, t := range s.Tables {
		rows := "missing"
		if t.Exists {
			rows = strconv.FormatInt(t.Rows, 10)
		}
		fmt.Fprintf(w, "%s\t%s\n", t.Name, rows)
	}
}
