// watcherctl manages tracked items and users against the watcher database.
// It stands in for the web layer: every mutation goes through the same
// trigger surface the daemon exposes, including the synchronous first check
// when an item is created or its threshold changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/mwojtas/cenowatch/pkg/config"
	"github.com/mwojtas/cenowatch/pkg/notify"
	"github.com/mwojtas/cenowatch/pkg/scrape"
	"github.com/mwojtas/cenowatch/pkg/store"
	"github.com/mwojtas/cenowatch/pkg/watch"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: watcherctl <command> [flags]

commands:
  add-user      -email <address>
  add           -url <product url> -threshold <price> -owner <user id>
  list
  set-threshold -id <item id> -threshold <price>
  delete        -id <item id>
  check         run one full cycle now
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fatal("opening store: %v", err)
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

	ctx := context.Background()

	switch os.Args[1] {
	case "add-user":
		fs := flag.NewFlagSet("add-user", flag.ExitOnError)
		email := fs.String("email", "", "notification address")
		fs.Parse(os.Args[2:])
		if *email == "" {
			fatal("-email is required")
		}
		u := store.User{ID: uuid.New().String(), Email: *email}
		if err := st.CreateUser(ctx, u); err != nil {
			fatal("creating user: %v", err)
		}
		fmt.Println(u.ID)

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		url := fs.String("url", "", "product page URL")
		threshold := fs.Int("threshold", 0, "notify when the lowest offer drops below this price")
		owner := fs.String("owner", "", "owning user id")
		fs.Parse(os.Args[2:])
		if *url == "" || *threshold <= 0 || *owner == "" {
			fatal("-url, -threshold and -owner are required")
		}
		item, err := checker.CreateAndCheckNow(ctx, *url, *threshold, *owner)
		if err != nil {
			fatal("adding item: %v", err)
		}
		fmt.Printf("%s  %q  price=%d  threshold=%d\n",
			item.ID, item.DisplayName, item.LastKnownPrice, item.ThresholdPrice)

	case "list":
		items, err := st.ListItems(ctx)
		if err != nil {
			fatal("listing items: %v", err)
		}
		for _, it := range items {
			fmt.Printf("%s  %q  price=%d  threshold=%d  %s\n",
				it.ID, it.DisplayName, it.LastKnownPrice, it.ThresholdPrice, it.SourceURL)
		}

	case "set-threshold":
		fs := flag.NewFlagSet("set-threshold", flag.ExitOnError)
		id := fs.String("id", "", "item id")
		threshold := fs.Int("threshold", 0, "new threshold price")
		fs.Parse(os.Args[2:])
		if *id == "" || *threshold <= 0 {
			fatal("-id and -threshold are required")
		}
		if err := checker.UpdateThresholdAndCheckNow(ctx, *id, *threshold); err != nil {
			fatal("updating threshold: %v", err)
		}

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		id := fs.String("id", "", "item id")
		fs.Parse(os.Args[2:])
		if *id == "" {
			fatal("-id is required")
		}
		if err := checker.DeleteItem(ctx, *id); err != nil {
			fatal("deleting item: %v", err)
		}

	case "check":
		report := checker.CheckNow(ctx)
		if report.Err != nil {
			fatal("cycle failed: %v", report.Err)
		}
		fmt.Println(report.Summary())

	default:
		usage()
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "watcherctl: "+format+"\n", args...)
	os.Exit(1)
}
