package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasbih-counter/internal/domain"
	"tasbih-counter/internal/metrics"
)

type fakeSink struct {
	got      [][]domain.Entry
	err      error
	total    int
	totalErr error
}

func (f *fakeSink) SyncEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	f.got = append(f.got, entries)
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, e := range entries {
		if !e.Timestamp.IsZero() {
			f.total += max(e.Count, 0)
			n++
		}
	}
	return n, nil
}

func (f *fakeSink) Total(ctx context.Context) (int, error) {
	return f.total, f.totalErr
}

func mirroredEntries(t *testing.T) float64 {
	t.Helper()
	mfs, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "tasbih_mirror_entries_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatal("mirror counter not registered")
	return 0
}

func TestMirror_CopiesEntries(t *testing.T) {
	sink := &fakeSink{}
	uc := &MirrorUseCase{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Store: seeded(), Sink: sink}
	require.NoError(t, uc.Run(context.Background()))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "Sara", sink.got[0][0].Name)
}

func TestMirror_CountsOnlyWrittenEntries(t *testing.T) {
	store := seeded()
	store.entries = append(store.entries, domain.Entry{Name: "no timestamp", Count: 4})
	uc := &MirrorUseCase{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Store: store, Sink: &fakeSink{}}

	before := mirroredEntries(t)
	require.NoError(t, uc.Run(context.Background()))
	assert.Equal(t, before+1, mirroredEntries(t))
}

func TestMirror_TotalReadFailureIsNotFatal(t *testing.T) {
	sink := &fakeSink{totalErr: errors.New("query failed")}
	uc := &MirrorUseCase{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Store: seeded(), Sink: sink}
	assert.NoError(t, uc.Run(context.Background()))
}

func TestMirror_SkipsEmptyList(t *testing.T) {
	sink := &fakeSink{}
	uc := &MirrorUseCase{Log: slog.New(slog.NewTextHandler(io.Discard, nil)), Store: &fakeStore{}, Sink: sink}
	require.NoError(t, uc.Run(context.Background()))
	assert.Empty(t, sink.got)
}

func TestMirror_PropagatesErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := seeded()
	store.listErr = errors.New("down")
	uc := &MirrorUseCase{Log: log, Store: store, Sink: &fakeSink{}}
	assert.Error(t, uc.Run(context.Background()))

	uc = &MirrorUseCase{Log: log, Store: seeded(), Sink: &fakeSink{err: errors.New("db gone")}}
	assert.Error(t, uc.Run(context.Background()))

	uc = &MirrorUseCase{Log: log}
	assert.Error(t, uc.Run(context.Background()))
}

func TestKeyed(t *testing.T) {
	entries := []domain.Entry{
		{Timestamp: fixedNow, Name: "Ali", Count: 5},
		{Name: "Sara", Count: 10},
	}
	got := keyed(entries)
	require.Len(t, got, 1)
	assert.Equal(t, "Ali", got[0].Name)
}
