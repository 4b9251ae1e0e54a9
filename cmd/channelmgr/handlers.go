package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openclaw/channelmgr/internal/catalog"
	"github.com/openclaw/channelmgr/internal/config"
	"github.com/openclaw/channelmgr/internal/logging"
	"github.com/openclaw/channelmgr/internal/maintenance"
	"github.com/openclaw/channelmgr/internal/session"
	"github.com/openclaw/channelmgr/internal/store"
	"github.com/openclaw/channelmgr/pkg/browser"
	"github.com/openclaw/channelmgr/pkg/server"
	"github.com/openclaw/channelmgr/pkg/tools"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// openStore opens the database and seeds the channel catalog. A
// failure here aborts the whole command; there is no retry.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.SeedCatalog(context.Background(), catalog.Default()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return db, nil
}

func requireChannel(id string) (*catalog.Channel, error) {
	channels := catalog.Default()
	ch, ok := catalog.ByID(channels, id)
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s (available: %s)",
			id, strings.Join(catalog.IDs(channels), ", "))
	}
	return ch, nil
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	channels, err := db.ListChannels(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tTIER\tSTATUS\tLAST AUTH\tFAILURES")
	for _, ch := range channels {
		lastAuth := "never"
		if ch.LastAuthenticatedAt != nil {
			lastAuth = ch.LastAuthenticatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			ch.Name, ch.Tier, ch.Status, lastAuth, ch.FailureCount)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts, err := db.CountLeads(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nLeads: %d total, %d hot, %d today\n", counts.Total, counts.Hot, counts.Today)
	return nil
}

func runConnect(channelID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ch, err := requireChannel(channelID)
	if err != nil {
		return err
	}

	// Connect only points at the login page; the browser itself is
	// opened by the host, and the user confirms afterwards.
	fmt.Printf("Opening %s login page: %s\n", ch.Name, ch.LoginURL)
	fmt.Printf("Browser profile: %s\n", cfg.Browser.Profile)
	fmt.Printf("\nAfter logging in, run: channelmgr confirm %s\n", channelID)
	return nil
}

func runConfirm(channelID string) error {
	return setSessionStatus(channelID, session.StatusConnected,
		"Manual login confirmed via CLI", "login_confirmed", "connected")
}

func runDisconnect(channelID string) error {
	return setSessionStatus(channelID, session.StatusExpired,
		"Manually disconnected via CLI", "disconnected", "expired")
}

func setSessionStatus(channelID string, status session.Status, notes, action, result string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := requireChannel(channelID); err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.UpdateSessionStatus(ctx, channelID, status, notes); err != nil {
		return err
	}
	if err := db.AppendActivity(ctx, &channelID, action, result, "via CLI"); err != nil {
		fmt.Fprintf(os.Stderr, "activity append failed: %v\n", err)
	}

	fmt.Printf("%s marked as %s.\n", channelID, status)
	return nil
}

func runLeads(source string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	leads, err := db.ListRecentLeads(ctx, store.LeadListOpts{Source: source, Limit: limit})
	if err != nil {
		return err
	}
	counts, err := db.CountLeads(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nLeads: %d total, %d hot, %d today\n\n", counts.Total, counts.Hot, counts.Today)
	for _, lead := range leads {
		hot := "  "
		if lead.HotLead {
			hot = "!!"
		}
		fmt.Printf("%s [%s] %s\n", hot, lead.Source, lead.Title)
		fmt.Printf("   %s\n", lead.URL)
		if lead.Budget != "" {
			fmt.Printf("   Budget: %s\n", lead.Budget)
		}
		fmt.Println()
	}
	return nil
}

func runPrune(days int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	archived, err := db.ArchiveOldLeads(ctx, days)
	if err != nil {
		return err
	}
	pruned, err := db.PruneActivity(ctx, days)
	if err != nil {
		return err
	}

	fmt.Printf("Archived %d leads older than %d days.\n", archived, days)
	fmt.Printf("Pruned %d activity log entries older than %d days.\n", pruned, days)
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	logger := logging.New(os.Stderr, cfg.Log.Level)

	db, err := openStore(cfg)
	if err != nil {
		logger.Error("store open failed", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer db.Close()
	logger.Info("store open", "path", cfg.Database.Path)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One-shot retention pass on startup; no periodic loop.
	maintenance.New(db, cfg.Retention.Days, logger).RunStartup(ctx)

	launcher := browser.New(cfg.Browser.Command, cfg.Browser.Profile, logger)
	srv := server.New(db, catalog.Default(), launcher, logger, port, cfg.Session.ParseCheckInterval())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.Log.Level)

	db, err := openStore(cfg)
	if err != nil {
		logger.Error("store open failed", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	maintenance.New(db, cfg.Retention.Days, logger).RunStartup(ctx)

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "channel-manager",
		Version: "0.1.0",
	}, nil)
	tools.New(db, logger).Register(srv)

	logger.Info("mcp server on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}
