package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"tasbih-counter/internal/domain"
)

// ResponseMode selects how append responses are interpreted.
type ResponseMode string

const (
	// ModeOpaque treats any completed round-trip as success. Apps Script
	// deployments called from a browser in no-cors mode give nothing better.
	ModeOpaque ResponseMode = "opaque"
	// ModeInspect reads the status and the {"success": bool} body.
	ModeInspect ResponseMode = "inspect"
)

var (
	ErrNoEndpoint = errors.New("sheet: endpoint URL is not configured")
	ErrRejected   = errors.New("sheet: append rejected")
)

// Client implements ports.EntryStore against a spreadsheet web app endpoint.
type Client struct {
	endpoint string
	mode     ResponseMode
	http     *http.Client
	log      *slog.Logger
}

func NewClient(endpoint string, mode ResponseMode, timeout time.Duration, log *slog.Logger) *Client {
	if mode == "" {
		mode = ModeOpaque
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		mode:     mode,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// ListEntries fetches every row of the sheet.
func (c *Client) ListEntries(ctx context.Context) ([]domain.Entry, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheet: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return c.parseEntries(body)
}

// AppendEntry posts one entry. A single attempt is made.
func (c *Client) AppendEntry(ctx context.Context, e domain.Entry) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}
	payload, err := json.Marshal(rawEntry{
		Timestamp: e.FormatTimestamp(),
		Name:      e.Name,
		Count:     e.Count,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if c.mode != ModeInspect {
		c.log.Debug("sheet append sent", slog.Int("status", resp.StatusCode), slog.String("name", e.Name))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(body))
	}
	if gjson.ValidBytes(body) {
		if ok := gjson.GetBytes(body, "success"); ok.Exists() && ok.Type == gjson.False {
			msg := gjson.GetBytes(body, "error").String()
			return fmt.Errorf("%w: %s", ErrRejected, msg)
		}
	}
	return nil
}

// parseEntries maps the sheet JSON to domain entries. Sheet cells are loosely
// typed, so counts may arrive as numbers or numeric strings.
func (c *Client) parseEntries(body []byte) ([]domain.Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("sheet: response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, errors.New("sheet: response is not a JSON array")
	}
	rows := root.Array()
	out := make([]domain.Entry, 0, len(rows))
	for i, row := range rows {
		e := domain.Entry{Name: row.Get("name").String()}
		count, err := parseCount(row.Get("count"))
		if err != nil {
			c.log.Warn("sheet row has unreadable count", slog.Int("row", i), slog.String("error", err.Error()))
		}
		e.Count = count
		if ts := row.Get("timestamp").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				e.Timestamp = t
			} else {
				c.log.Warn("sheet row has unreadable timestamp", slog.Int("row", i), slog.String("timestamp", ts))
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func parseCount(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return 0, fmt.Errorf("count %s is not a whole number", v.Raw)
		}
		if v.Num < math.MinInt32 || v.Num > math.MaxInt32 {
			return 0, fmt.Errorf("count %s is out of range", v.Raw)
		}
		return int(v.Num), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, err
		}
		return n, nil
	case gjson.Null:
		return 0, errors.New("missing count")
	default:
		return 0, fmt.Errorf("count has type %s", v.Type)
	}
}

// rawEntry mirrors the JSON the sheet endpoint accepts.
type rawEntry struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}
