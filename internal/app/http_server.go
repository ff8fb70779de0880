package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"tasbih-counter/internal/domain"
	"tasbih-counter/internal/metrics"
	"tasbih-counter/internal/usecase"
)

// HTTPServer returns a configured http.Server serving the counter page and
// its JSON API. Call ListenAndServe on the returned server in a goroutine and
// Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: a.Handler()}
	a.log.Info("http server configured", slog.String("addr", addr))
	return srv
}

// Handler builds the router with all middleware applied.
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware(a.log), metricsMiddleware)

	limiter := rate.NewLimiter(rate.Limit(a.cfg.HTTP.SubmitRate), a.cfg.HTTP.SubmitBurst)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Page and form fallbacks
	r.HandleFunc("/", a.handlePage).Methods(http.MethodGet)
	r.Handle("/submit", limit(limiter, http.HandlerFunc(a.handleSubmitForm))).Methods(http.MethodPost)
	r.HandleFunc("/counter/{op}", a.handleCounterForm).Methods(http.MethodPost)
	r.HandleFunc("/export.xlsx", a.handleExport).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", a.handleState).Methods(http.MethodGet)
	api.HandleFunc("/counter/key", a.handleKey).Methods(http.MethodPost)
	api.HandleFunc("/counter/{op}", a.handleCounter).Methods(http.MethodPost)
	api.HandleFunc("/form", a.handleForm).Methods(http.MethodPut)
	api.HandleFunc("/form/use-counter", a.handleUseCounter).Methods(http.MethodPost)
	api.Handle("/submit", limit(limiter, http.HandlerFunc(a.handleSubmit))).Methods(http.MethodPost)
	api.HandleFunc("/refresh", a.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/notice", a.handleDismiss).Methods(http.MethodDelete)

	return r
}

type entryJSON struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

type stateResponse struct {
	usecase.State
	Recent []entryJSON `json:"recent"`
}

func (a *App) stateResponse() stateResponse {
	st := a.session.Snapshot()
	recent := a.session.RecentEntries(a.cfg.Session.RecentEntries)
	out := stateResponse{
		State:  st,
		Recent: make([]entryJSON, 0, len(recent)),
	}
	for _, e := range recent {
		out.Recent = append(out.Recent, toEntryJSON(e))
	}
	return out
}

func toEntryJSON(e domain.Entry) entryJSON {
	ts := ""
	if !e.Timestamp.IsZero() {
		ts = e.FormatTimestamp()
	}
	return entryJSON{Timestamp: ts, Name: e.Name, Count: e.Count}
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.stateResponse())
}

// applyCounterOp runs one counter transition and reports whether op exists.
func (a *App) applyCounterOp(op string) bool {
	switch op {
	case "increment":
		a.session.Increment()
	case "decrement":
		a.session.Decrement()
	case "reset":
		a.session.Reset()
	case "mute":
		a.session.ToggleMute()
	default:
		return false
	}
	return true
}

func (a *App) handleCounter(w http.ResponseWriter, r *http.Request) {
	if !a.applyCounterOp(mux.Vars(r)["op"]) {
		jsonError(w, "unknown counter operation", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a.stateResponse())
}

type keyRequest struct {
	Key string `json:"key"`
}

func (a *App) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a.session.HandleKey(req.Key)
	writeJSON(w, http.StatusOK, a.stateResponse())
}

type formRequest struct {
	Name  *string `json:"name"`
	Count *string `json:"count"`
}

func (f formRequest) apply(s *usecase.Session) {
	if f.Name != nil {
		s.SetName(*f.Name)
	}
	if f.Count != nil {
		s.SetCount(*f.Count)
	}
}

func (a *App) handleForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.apply(a.session)
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *App) handleUseCounter(w http.ResponseWriter, r *http.Request) {
	a.session.UseCounter()
	writeJSON(w, http.StatusOK, a.stateResponse())
}

// handleSubmit accepts an optional JSON body with name/count. It only reaches
// the form when the submission actually runs.
func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	outcome, err := a.session.SubmitWith(r.Context(), usecase.FormUpdate{Name: req.Name, Count: req.Count})
	writeJSON(w, submitStatus(outcome, err), a.stateResponse())
}

func submitStatus(outcome usecase.Outcome, err error) int {
	switch {
	case errors.Is(err, usecase.ErrBusy):
		return http.StatusConflict
	case outcome == usecase.OutcomeInvalid:
		return http.StatusUnprocessableEntity
	case outcome == usecase.OutcomeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func (a *App) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Read failures leave the state stale; the caller just sees the old list.
	_ = a.session.Refresh(r.Context())
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *App) handleDismiss(w http.ResponseWriter, r *http.Request) {
	a.session.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("name")
	count := strings.TrimSpace(r.PostForm.Get("count"))
	_, _ = a.session.SubmitWith(r.Context(), usecase.FormUpdate{
		Name:       &name,
		Count:      &count,
		UseCounter: r.PostForm.Get("use_counter") != "",
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleCounterForm(w http.ResponseWriter, r *http.Request) {
	if !a.applyCounterOp(mux.Vars(r)["op"]) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := a.Export(r.Context(), &buf); err != nil {
		a.log.Error("export failed", slog.String("error", err.Error()))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="tasbih-entries.xlsx"`)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]any{"status": "error", "error": msg})
}
