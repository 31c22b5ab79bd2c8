package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwojtas/cenowatch/pkg/config"
	"github.com/mwojtas/cenowatch/pkg/notify"
	"github.com/mwojtas/cenowatch/pkg/scrape"
	"github.com/mwojtas/cenowatch/pkg/store"
	"github.com/mwojtas/cenowatch/pkg/watch"
)

func main() {
	onceArg := flag.Bool("once", false, "run a single cycle over all tracked items and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateMail(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("opening store failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	checker := watch.NewChecker(
		st,
		scrape.NewFetcher(cfg.HTTPTimeout),
		scrape.NewExtractor(scrape.MarkersForTemplate(cfg.TemplateGen)),
		notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailAddress, cfg.MailPassword),
		cfg.Workers,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *onceArg {
		checker.RunCycle(ctx)
		return
	}

	sched := watch.NewScheduler(checker, st, cfg.Interval, cfg.Grace, logger)
	sched.Start(ctx)

	<-ctx.Done()
	sched.Stop()
}
