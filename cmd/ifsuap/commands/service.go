package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"ifsuap/internal/components/chrono"
	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/document"
	"ifsuap/internal/gradestore"
	"ifsuap/internal/page"
	"ifsuap/internal/page/browser"
	"ifsuap/internal/page/htmlpage"
	"ifsuap/internal/suap"
	"ifsuap/lib/serviceutil"

	"golang.org/x/time/rate"
)

func credentialsFromEnv() suap.Credentials {
	return suap.Credentials{
		Username: os.Getenv("SUAP_USERNAME"),
		Password: os.Getenv("SUAP_PASSWORD"),
	}
}

// openJournal returns nil when no journal is configured.
func openJournal(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Journal == "" {
		return nil, nil
	}
	return gradestore.Open(ctx, cfg.Journal)
}

// newService wires the service the commands run their use case with, the
// returned function releases what it acquired.
func newService(ctx context.Context) (*suap.Service, func()) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	tel := telemetry.SlogAPI{}
	creds := credentialsFromEnv()
	offline := *offlineDir != ""
	if !offline && creds.Missing() {
		printResponse(suap.Failure(fmt.Sprintf("Error: %s", suap.ErrMissingCredentials), nil))
		os.Exit(1)
	}

	clock, err := chrono.NewStandardImpl()
	if err != nil {
		serviceutil.Fatal("failed to load the portal timezone", err)
	}

	var cleanup []func()
	var opener page.Opener
	if offline {
		site, err := htmlpage.LoadDir(*offlineDir, cfg.BaseUrl)
		if err != nil {
			serviceutil.Fatal("failed to load saved pages", err)
		}
		opener = htmlpage.Opener(site, nil)
	} else {
		launcher := browser.NewLauncher(browser.Options{
			Headless: cfg.Headless,
			Output:   os.Stderr,
		}, tel)
		opener = launcher.Open
		cleanup = append(cleanup, func() { launcher.Stop() })
	}

	opts := suap.Options{
		BaseUrl:     cfg.BaseUrl,
		Credentials: creds,
		Layout:      cfg.Layout,
		Timeouts:    cfg.timeouts(),
		Markers:     cfg.markers(),
		Documents:   document.NewPDFReader(tel),
		Clock:       clock,
		SkipLogin:   offline,
	}
	if cfg.WritesPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), 1)
	}

	database, err := openJournal(ctx, cfg)
	if err != nil {
		serviceutil.Fatal("failed to open journal", err)
	}
	if database != nil {
		opts.Journal = gradestore.NewStore(database)
		cleanup = append(cleanup, func() { database.Close() })
	}

	service := suap.NewService(opener, opts, tel)
	return service, func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
}
