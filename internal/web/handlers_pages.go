package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

// handleDashboard renders the dataset list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	byGroup := s.service.ListDatasetsByGroup()

	var groups []templates.DatasetGroup
	for _, name := range core.Groups() {
		groups = append(groups, templates.DatasetGroup{
			Name:     name,
			Datasets: byGroup[name],
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Dashboard(groups).Render(r.Context(), w)
}

// handleTableView renders a table session over a dataset. The page and
// rowsPerPage query parameters move the view before rendering.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	ds, ok := core.Get(key)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownDataset, key))
		return
	}

	sess, state, err := s.tableSession(r, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rowsPerPage := parseIntParam(r, "rowsPerPage", 0)
	page := parseIntParam(r, "page", 0)
	if rowsPerPage > 0 || page > 0 {
		state, err = s.service.Do(r.Context(), sess.ID, func(t *core.Table) error {
			if rowsPerPage > 0 {
				if err := t.ChangeRowsPerPage(rowsPerPage); err != nil {
					return err
				}
			}
			t.ChangePage(page)
			return nil
		})
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.TableView(ds.Info(), sess.ID, state).Render(r.Context(), w)
}

// tableSession resumes the session named by the session query parameter when
// it is still open for this dataset, and opens a new one otherwise.
func (s *Server) tableSession(r *http.Request, key string) (*core.Session, core.State, error) {
	if id := r.URL.Query().Get("session"); id != "" {
		if sess, err := s.service.Session(id); err == nil && sess.DatasetKey == key {
			var state core.State
			err := s.service.View(id, func(t *core.Table) error {
				state = t.State()
				return nil
			})
			if err == nil {
				return sess, state, nil
			}
		}
	}
	return s.service.OpenSession(r.Context(), key)
}

// handleHealth reports liveness, the open session count and fetch slots.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"datasets": len(core.All()),
		"sessions": s.service.SessionCount(),
		"fetches":  s.service.FetchStatus(),
	})
}
