// main.go - Admin control tool for Shortn
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"shortn/internal"
	"shortn/internal/analytics"
	"shortn/internal/campaigns"
	"shortn/internal/clicks"
	"shortn/internal/links"
	"shortn/internal/seeder"
	"shortn/internal/timeframe"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&StatusCommand{},
	&ProcessClicksCommand{},
	&ExportCampaignCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	db := app.DBManager.GetConnection()

	var linkCount, campaignCount, clickCount int64
	if err := db.Model(&links.Link{}).Count(&linkCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&campaigns.Campaign{}).Count(&campaignCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&clicks.Click{}).Count(&clickCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	pending, err := clicks.CountPending(db)
	if err != nil {
		return err
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Links: %d", linkCount)
	log.Printf("- Campaigns: %d", campaignCount)
	log.Printf("- Clicks: %d", clickCount)
	log.Printf("- Pending clicks: %d", pending)
	log.Printf("- Link cache: %t", app.Redis != nil)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with sample links and clicks
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample links and clicks" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	count := fs.Int("clicks", 2000, "number of clicks to generate")
	owner := fs.String("owner", seeder.DefaultOwner, "owner the sample data belongs to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default(), *count)
	se.OwnerID = *owner
	return se.Run(ctx)
}

// ProcessClicksCommand drains the ingested click queue once
type ProcessClicksCommand struct{}

func (c *ProcessClicksCommand) Name() string { return "process-clicks" }
func (c *ProcessClicksCommand) Description() string {
	return "Processes pending clicks without waiting for the scheduler"
}

func (c *ProcessClicksCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	result, err := clicks.ProcessUnprocessedClicks(app.DBManager, slog.Default(), 500)
	if err != nil {
		return err
	}
	log.Printf("Processed %d clicks, skipped %d bots", len(result.Processed), result.SkippedBots)
	return nil
}

// ExportCampaignCommand writes a campaign's clicks as CSV
type ExportCampaignCommand struct{}

func (c *ExportCampaignCommand) Name() string { return "export-campaign" }
func (c *ExportCampaignCommand) Description() string {
	return "Writes a campaign's clicks as CSV: export-campaign [-from yyyy-mm-dd] [-to yyyy-mm-dd] [-out file] <id>"
}

func (c *ExportCampaignCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("export-campaign", flag.ContinueOnError)
	from := fs.String("from", "", "first day to include (yyyy-mm-dd)")
	to := fs.String("to", "", "last day to include (yyyy-mm-dd)")
	out := fs.String("out", "", "output file (stdout when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s [flags] <campaign id>", c.Name())
	}
	campaignID, err := strconv.ParseUint(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q", fs.Arg(0))
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	var filter analytics.ExportFilter
	if *from != "" {
		day, err := time.Parse(timeframe.DateLayout, *from)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
		filter.From = timeframe.StartOfDay(day)
	}
	if *to != "" {
		day, err := time.Parse(timeframe.DateLayout, *to)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
		filter.To = timeframe.EndOfDay(day)
	}

	rows, err := campaigns.ExportRows(ctx, app.DBManager.GetConnection(), uint(campaignID), filter)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	if err := campaigns.WriteExportCSV(w, rows); err != nil {
		return err
	}
	log.Printf("Exported %d clicks", len(rows))
	return nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: shortnctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
