package ports

import (
	"context"

	"tasbih-counter/internal/domain"
)

// EntryStore is the remote spreadsheet-backed store of entries.
type EntryStore interface {
	ListEntries(ctx context.Context) ([]domain.Entry, error)
	AppendEntry(ctx context.Context, e domain.Entry) error
}

// Sink receives entries and persists them to a secondary target system.
// SyncEntries reports how many entries it actually wrote.
type Sink interface {
	SyncEntries(ctx context.Context, entries []domain.Entry) (int, error)
	Total(ctx context.Context) (int, error)
}
