package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/go-chi/chi/v5"
)

func (s *server) reportRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ViewReports))
		r.Get("/reports/daily", s.dailyReport)
		r.Get("/reports/period", s.periodReport)
		r.Get("/reports/snapshots/{date}", s.reportSnapshot)
	})
}

func (s *server) dailyReport(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Daily(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, d)
}

func (s *server) periodReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.reports.Period(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, p)
}

func (s *server) reportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reports.Snapshot(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, snap)
}
