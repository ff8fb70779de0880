package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"tasbih-counter/internal/domain"
)

// Client implements ports.Sink by mirroring entries into a MySQL table.
type Client struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return NewWithDB(db, log), nil
}

// NewWithDB wraps an already opened database.
func NewWithDB(db *sql.DB, log *slog.Logger) *Client {
	return &Client{db: db, log: log, now: time.Now}
}

const upsertEntry = `
INSERT INTO tasbih_entries
  (entry_ts, name, count, mirrored_at)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  count=VALUES(count),
  mirrored_at=VALUES(mirrored_at);
`

// SyncEntries upserts entries keyed by (timestamp, name). Rows without a
// usable timestamp cannot be keyed and are skipped.
func (c *Client) SyncEntries(ctx context.Context, entries []domain.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertEntry)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	mirroredAt := c.now().UTC()
	written, skipped := 0, 0
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			skipped++
			continue
		}
		if _, err := stmt.ExecContext(
			ctx,
			e.Timestamp.UTC().Truncate(time.Millisecond),
			e.Name,
			e.Count,
			mirroredAt,
		); err != nil {
			tx.Rollback()
			return 0, err
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	c.log.Info("mysql sink upserted entries", slog.Int("count", written), slog.Int("skipped", skipped))
	return written, nil
}

// Total returns the sum of positive mirrored counts, matching domain.Total.
func (c *Client) Total(ctx context.Context) (int, error) {
	var total sql.NullInt64
	if err := c.db.QueryRowContext(ctx, "SELECT SUM(count) FROM tasbih_entries WHERE count > 0").Scan(&total); err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// Close closes the underlying DB. Not wired via interface to keep ports minimal.
func (c *Client) Close() error { return c.db.Close() }
