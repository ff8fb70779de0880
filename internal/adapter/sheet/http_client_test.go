package sheet

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"tasbih-counter/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListEntries_ParsesNumbersAndNumericStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"timestamp":"2025-03-26T10:00:00.000Z","name":"Ali","count":5},
			{"timestamp":"2025-03-26T11:30:00.000Z","name":"Sara","count":"33"},
			{"timestamp":"not a date","name":"Omar","count":"many"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, ModeOpaque, time.Second, testLogger())
	entries, err := c.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Ali", entries[0].Name)
	assert.Equal(t, 5, entries[0].Count)
	assert.Equal(t, time.Date(2025, 3, 26, 10, 0, 0, 0, time.UTC), entries[0].Timestamp.UTC())
	assert.Equal(t, 33, entries[1].Count)
	assert.Equal(t, 0, entries[2].Count)
	assert.True(t, entries[2].Timestamp.IsZero())
	assert.Equal(t, 38, domain.Total(entries))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `7`, want: 7},
		{raw: `7.0`, want: 7},
		{raw: `" 12 "`, want: 12},
		{raw: `2.5`, wantErr: true},
		{raw: `1e20`, wantErr: true},
		{raw: `-1e20`, wantErr: true},
		{raw: `"x"`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCount(gjson.Parse(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListEntries_UnreadableNumbersCountAsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"timestamp":"2025-03-26T10:00:00.000Z","name":"Ali","count":2.5},
			{"timestamp":"2025-03-26T10:01:00.000Z","name":"Sara","count":1e20},
			{"timestamp":"2025-03-26T10:02:00.000Z","name":"Omar","count":4}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, ModeOpaque, time.Second, testLogger())
	entries, err := c.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[0].Count)
	assert.Equal(t, 0, entries[1].Count)
	assert.Equal(t, 4, domain.Total(entries))
}

func TestListEntries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusInternalServerError, "boom"},
		{"invalid json", http.StatusOK, "<html>"},
		{"not an array", http.StatusOK, `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, ModeOpaque, time.Second, testLogger())
			_, err := c.ListEntries(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestNoEndpoint(t *testing.T) {
	c := NewClient("", "", 0, testLogger())
	_, err := c.ListEntries(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
	assert.ErrorIs(t, c.AppendEntry(context.Background(), domain.Entry{}), ErrNoEndpoint)
}

func TestAppendEntry_SendsJSON(t *testing.T) {
	var got rawEntry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, ModeInspect, time.Second, testLogger())
	e := domain.Entry{
		Timestamp: time.Date(2025, 3, 26, 10, 0, 0, 0, time.UTC),
		Name:      "Ali",
		Count:     5,
	}
	require.NoError(t, c.AppendEntry(context.Background(), e))
	assert.Equal(t, rawEntry{Timestamp: "2025-03-26T10:00:00.000Z", Name: "Ali", Count: 5}, got)
}

func TestAppendEntry_ResponseModes(t *testing.T) {
	tests := []struct {
		name    string
		mode    ResponseMode
		status  int
		body    string
		wantErr bool
	}{
		{"opaque ignores failure body", ModeOpaque, http.StatusOK, `{"success":false}`, false},
		{"opaque ignores status", ModeOpaque, http.StatusInternalServerError, "", false},
		{"inspect success", ModeInspect, http.StatusOK, `{"success":true}`, false},
		{"inspect plain text", ModeInspect, http.StatusOK, "ok", false},
		{"inspect rejected body", ModeInspect, http.StatusOK, `{"success":false,"error":"sheet locked"}`, true},
		{"inspect bad status", ModeInspect, http.StatusBadGateway, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, tt.mode, time.Second, testLogger())
			err := c.AppendEntry(context.Background(), domain.Entry{Name: "Ali", Count: 1})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAppendEntry_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, ModeOpaque, time.Second, testLogger())
	err := c.AppendEntry(context.Background(), domain.Entry{Name: "Ali", Count: 1})
	assert.Error(t, err)
}
