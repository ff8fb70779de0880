package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	msql "tasbih-counter/internal/adapter/mysql"
	"tasbih-counter/internal/adapter/sheet"
	"tasbih-counter/internal/adapter/xlsx"
	"tasbih-counter/internal/config"
	"tasbih-counter/internal/counter"
	"tasbih-counter/internal/metrics"
	"tasbih-counter/internal/migrate"
	"tasbih-counter/internal/ports"
	"tasbih-counter/internal/usecase"
)

// App wires adapters and use cases.
type App struct {
	log     *slog.Logger
	cfg     config.Config
	store   ports.EntryStore
	session *usecase.Session
	mirror  *usecase.MirrorUseCase
	sink    *msql.Client
}

func New(log *slog.Logger, cfg config.Config) (*App, error) {
	store := sheet.NewClient(cfg.Sheet.URL, sheet.ResponseMode(cfg.Sheet.ResponseMode), cfg.Sheet.Timeout, log)
	if cfg.Sheet.URL == "" {
		log.Warn("SHEET_API_URL is empty, fetches and submissions will fail")
	}
	a := NewWithStore(log, cfg, store)

	if cfg.MySQL.DSN != "" {
		// Run migrations before opening the sink for use
		if err := migrate.Run(context.Background(), cfg.MySQL.DSN, log); err != nil {
			return nil, err
		}
		sink, err := msql.NewClient(context.Background(), cfg.MySQL.DSN, log)
		if err != nil {
			return nil, err
		}
		a.sink = sink
		a.mirror = &usecase.MirrorUseCase{Log: log, Store: store, Sink: sink}
	}
	return a, nil
}

// NewWithStore builds an App around an existing entry store, without a mirror.
func NewWithStore(log *slog.Logger, cfg config.Config, store ports.EntryStore) *App {
	c := counter.New(cueRecorder{log: log})
	session := usecase.NewSession(log, store, c, usecase.SessionOptions{
		Reconcile: usecase.ReconcileMode(cfg.Session.Reconcile),
	})
	return &App{log: log, cfg: cfg, store: store, session: session}
}

func (a *App) Session() *usecase.Session { return a.session }

// Refresh loads the entry list into the session.
func (a *App) Refresh(ctx context.Context) error {
	return a.session.Refresh(ctx)
}

// HasMirror reports whether a MySQL mirror is configured.
func (a *App) HasMirror() bool { return a.mirror != nil }

// MirrorOnce copies the remote entries into MySQL.
func (a *App) MirrorOnce(ctx context.Context) error {
	if a.mirror == nil {
		return errors.New("mirror not configured: set MYSQL_DSN")
	}
	return a.mirror.Run(ctx)
}

// Export fetches the current entry list and writes it as an xlsx workbook.
func (a *App) Export(ctx context.Context, w io.Writer) error {
	entries, err := a.store.ListEntries(ctx)
	if err != nil {
		return err
	}
	return xlsx.Write(w, entries)
}

// Close releases the mirror database, if any.
func (a *App) Close() error {
	if a.sink != nil {
		return a.sink.Close()
	}
	return nil
}

// cueRecorder stands in for the audio/animation hooks of a graphical client.
type cueRecorder struct {
	log *slog.Logger
}

func (r cueRecorder) Play(c counter.Cue) {
	metrics.RecordCue(c.String())
	r.log.Debug("counter cue", slog.String("cue", c.String()))
}
