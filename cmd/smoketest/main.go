package main

import (
	"context"
	"github.com/myrjola/casefile/internal/e2etest"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// TestAuth registers a fresh investigator, logs out and logs back in.
func TestAuth(ctx context.Context, client *e2etest.Client) error {
	if err := client.Register(ctx); err != nil {
		return errors.Wrap(err, "register investigator")
	}
	if err := client.Logout(ctx); err != nil {
		return errors.Wrap(err, "logout investigator")
	}
	if err := client.Login(ctx); err != nil {
		return errors.Wrap(err, "login investigator")
	}
	return nil
}

// TestCases lists the cases of the logged-in investigator. A fresh investigator has none.
func TestCases(ctx context.Context, client *e2etest.Client) error {
	var cases []map[string]any
	if err := client.DoJSON(ctx, http.MethodGet, "/api/cases", nil, &cases); err != nil {
		return errors.Wrap(err, "list cases")
	}
	if len(cases) != 0 {
		return errors.New("fresh investigator has cases", slog.Int("count", len(cases)))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds

	if client, err = e2etest.NewClient(url, hostname, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestAuth(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing auth", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestCases(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing cases", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	cancel()
}
