package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/conorfennell/langdrill/internal/config"
	"github.com/conorfennell/langdrill/internal/content"
	"github.com/conorfennell/langdrill/internal/decks"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/logging"
	"github.com/conorfennell/langdrill/internal/storage"
	"github.com/conorfennell/langdrill/internal/study"
	contentsync "github.com/conorfennell/langdrill/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:           "langdrill",
	Short:         "Spaced-repetition drills for vocabulary, grammar and sentences",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is what every command needs: configuration, a logger and the database.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *storage.DB
}

func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	db, err := storage.Open(cfg.Database.Path, storage.Options{Location: loc, Defaults: cfg.DefaultSettings()})
	if err != nil {
		return nil, err
	}
	log.WithField("path", cfg.Database.Path).Debug("database opened")
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// registry wires content, scheduler and storage into the deck controllers.
func (a *app) registry(recorder study.Recorder) (*decks.Registry, error) {
	roots, err := contentsync.Roots(a.cfg.Content)
	if err != nil {
		return nil, err
	}
	sched, err := fsrs.NewScheduler(a.cfg.SchedulerParams())
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return decks.NewRegistry(content.NewDir(a.log, roots...), a.db, sched, study.Options{
		Location: loc,
		Log:      a.log,
		Recorder: recorder,
	})
}
