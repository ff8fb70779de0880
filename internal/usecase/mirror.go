package usecase

import (
	"context"
	"errors"
	"log/slog"

	"tasbih-counter/internal/domain"
	"tasbih-counter/internal/metrics"
	"tasbih-counter/internal/ports"
)

// MirrorUseCase copies the remote entry list into a Sink.
type MirrorUseCase struct {
	Log   *slog.Logger
	Store ports.EntryStore
	Sink  ports.Sink
}

func (uc *MirrorUseCase) Run(ctx context.Context) error {
	if uc.Store == nil || uc.Sink == nil {
		return errors.New("usecase not initialized: missing dependencies")
	}
	uc.Log.Info("fetching entries for mirror")

	entries, err := uc.Store.ListEntries(ctx)
	if err != nil {
		return err
	}
	uc.Log.Info("fetched entries", slog.Int("count", len(entries)))

	if len(entries) == 0 {
		uc.Log.Info("no entries to mirror")
		return nil
	}

	written, err := uc.Sink.SyncEntries(ctx, entries)
	if err != nil {
		return err
	}
	metrics.RecordMirrored(written)

	// The mirror keeps rows the sheet has since dropped, so its total can only
	// drift upwards; a lower total means rows failed to land.
	mirrorTotal, err := uc.Sink.Total(ctx)
	if err != nil {
		uc.Log.Warn("failed to read mirror total", slog.String("error", err.Error()))
	} else {
		metrics.SetMirrorTotal(mirrorTotal)
		if sheetTotal := domain.Total(keyed(entries)); mirrorTotal < sheetTotal {
			uc.Log.Warn("mirror total below sheet total",
				slog.Int("mirror_total", mirrorTotal),
				slog.Int("sheet_total", sheetTotal),
			)
		}
	}
	uc.Log.Info("mirror completed", slog.Int("count", written), slog.Int("skipped", len(entries)-written))
	return nil
}

// keyed drops entries without a timestamp, which the sink cannot store.
func keyed(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Timestamp.IsZero() {
			out = append(out, e)
		}
	}
	return out
}
