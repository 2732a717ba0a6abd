package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/client/booking"
	"github.com/atinyakov/carebook/internal/client/prompt"
	"github.com/atinyakov/carebook/internal/client/session"
	"github.com/atinyakov/carebook/internal/client/storage"
	"github.com/atinyakov/carebook/internal/config"
	"github.com/atinyakov/carebook/internal/logger"
)

var (
	version   string
	buildDate string
)

// main wires the session, API client and booking consumers and starts the
// interactive shell.
func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Printf("carebook client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	opts, err := config.ParseClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// console output would interleave with the prompt
	log := logger.New(logger.WithConsole(nil), logger.WithFile(opts.LogFile))
	if err := log.Init(opts.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	hc, err := api.NewHTTPClient(opts.CAFile, opts.Timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := storage.NewFileStore(opts.SessionFile)
	a := newApp(opts.BaseURL, hc, store, prompt.Stdio(), os.Stdout, log.Log)
	if err := a.session.Initialize(ctx); err != nil {
		log.Log.Warn("could not restore session", zap.String("path", store.Path()), zap.Error(err))
		fmt.Printf("Saved session in %s could not be read; please log in again.\n", store.Path())
	}
	a.run(ctx)
}

// newApp builds the client stack on top of store and the given transport.
func newApp(baseURL string, hc *http.Client, store storage.CredentialStore, p *prompt.Prompter, out io.Writer, log *zap.Logger) *app {
	mgr := session.New(store, nil, session.WithLogger(log))
	client := api.New(baseURL, hc, mgr, api.WithLogger(log))
	mgr.SetAuthenticator(client)

	return &app{
		client:   client,
		session:  mgr,
		bookings: booking.NewService(client, mgr, log),
		list:     booking.NewList(client, mgr, log),
		prompt:   p,
		out:      out,
		log:      log,
	}
}
