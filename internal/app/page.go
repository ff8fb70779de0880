package app

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"tasbih-counter/internal/domain"
	"tasbih-counter/internal/usecase"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"entryTime": entryTime,
}).ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	usecase.State
	Recent []domain.Entry
}

func (a *App) handlePage(w http.ResponseWriter, r *http.Request) {
	st := a.session.Snapshot()
	data := pageData{
		State:  st,
		Recent: a.session.RecentEntries(a.cfg.Session.RecentEntries),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		a.log.Error("render page", slog.String("error", err.Error()))
	}
}

// entryTime renders timestamps like "Mar 26, 2025, 10:00 AM".
func entryTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("Jan 02, 2006, 03:04 PM")
}
