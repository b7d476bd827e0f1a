package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/logging"
)

// openSessionResponse is returned when a dataset is opened.
type openSessionResponse struct {
	SessionID string     `json:"sessionId"`
	Dataset   string     `json:"dataset"`
	State     core.State `json:"state"`
}

type sortRequest struct {
	Column    string             `json:"column"`
	Direction core.SortDirection `json:"direction,omitempty"`
}

// filterRequest either updates a column's entry as a control of Type would, or
// with Remove set drops one value from it.
type filterRequest struct {
	Column string          `json:"column"`
	Type   string          `json:"type,omitempty"`
	Values []any           `json:"values"`
	Remove json.RawMessage `json:"remove,omitempty"`
}

type searchRequest struct {
	Text *string `json:"text"`
	Open *bool   `json:"open"`
}

type pageRequest struct {
	Page        *int `json:"page"`
	RowsPerPage *int `json:"rowsPerPage"`
}

type rowRequest struct {
	DataIndex int  `json:"dataIndex"`
	Extend    bool `json:"extend"`
}

type selectAllRequest struct {
	Selected bool `json:"selected"`
}

type deleteResponse struct {
	Deleted bool       `json:"deleted"`
	State   core.State `json:"state"`
}

// handleListDatasets returns all datasets organized by group.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListDatasetsByGroup())
}

// handleOpenSession opens a table over a dataset.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	sess, state, err := s.service.OpenSession(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(openSessionResponse{
		SessionID: sess.ID,
		Dataset:   sess.DatasetKey,
		State:     state,
	})
}

// handleGetSession returns the current table state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	var state core.State
	err := s.service.View(sessionID(r), func(t *core.Table) error {
		state = t.State()
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, state)
}

// handleCloseSession drops a session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if !s.service.CloseSession(id) {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id))
		return
	}
	logging.ForSession(r.Context(), id).Info("session closed")
	w.WriteHeader(http.StatusNoContent)
}

// mutate runs fn against the session's table and writes the resulting state.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(t *core.Table) error) {
	state, err := s.service.Do(r.Context(), sessionID(r), fn)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, state)
}

// handleSort toggles a column's sort, or sets it when a direction is given.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Column == "" {
		s.respondError(w, r, fmt.Errorf("%w: column is required", errBadRequest))
		return
	}
	if req.Direction != "" && !req.Direction.Valid() {
		s.respondError(w, r, fmt.Errorf("%w: unknown direction %q", errBadRequest, req.Direction))
		return
	}

	s.mutate(w, r, func(t *core.Table) error {
		if req.Direction == "" {
			return t.ToggleSort(req.Column)
		}
		return t.SetSort(core.SortSpec{Name: req.Column, Direction: req.Direction})
	})
}

// handleFilter changes one column's filter entry.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Column == "" {
		s.respondError(w, r, fmt.Errorf("%w: column is required", errBadRequest))
		return
	}

	var kind core.FilterKind
	if req.Type != "" {
		k, ok := core.ParseFilterKind(req.Type)
		if !ok {
			s.respondError(w, r, fmt.Errorf("%w: unknown filter type %q", errBadRequest, req.Type))
			return
		}
		kind = k
	}

	if len(req.Remove) > 0 {
		var value any
		if err := json.Unmarshal(req.Remove, &value); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		s.mutate(w, r, func(t *core.Table) error {
			return t.RemoveFilterValue(req.Column, value)
		})
		return
	}

	s.mutate(w, r, func(t *core.Table) error {
		return t.UpdateFilter(req.Column, kind, req.Values...)
	})
}

// handleResetFilters clears every filter entry.
func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(t *core.Table) error {
		t.ResetFilters()
		return nil
	})
}

// handleFilterData lists the values each filter control offers.
func (s *Server) handleFilterData(w http.ResponseWriter, r *http.Request) {
	var data map[string][]any
	err := s.service.View(sessionID(r), func(t *core.Table) error {
		data = t.FilterData()
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, data)
}

// handleSearch opens or closes the search box and sets its text.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.mutate(w, r, func(t *core.Table) error {
		if req.Open != nil && !*req.Open {
			t.CloseSearch()
			return nil
		}
		if req.Open != nil {
			t.OpenSearch()
		}
		if req.Text != nil {
			t.SetSearchText(*req.Text)
		}
		return nil
	})
}

// handlePage changes the page size and then the page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.mutate(w, r, func(t *core.Table) error {
		if req.RowsPerPage != nil {
			if err := t.ChangeRowsPerPage(*req.RowsPerPage); err != nil {
				return err
			}
		}
		if req.Page != nil {
			t.ChangePage(*req.Page)
		}
		return nil
	})
}

// handleToggleColumn flips a column's visibility.
func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mutate(w, r, func(t *core.Table) error {
		return t.ToggleColumn(name)
	})
}

// handleSelect toggles one row, or extends the selection to it.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.mutate(w, r, func(t *core.Table) error {
		return t.SelectRow(req.DataIndex, req.Extend)
	})
}

// handleSelectAll selects every displayed row or clears the selection.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req selectAllRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.mutate(w, r, func(t *core.Table) error {
		t.SelectAll(req.Selected)
		return nil
	})
}

// handleSetSelection replaces the selection. The body is a list of data
// indices or the {data, lookup} selection shape.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var rows any
	if err := decodeJSON(r, &rows); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.mutate(w, r, func(t *core.Table) error {
		return t.SetSelectedRows(rows)
	})
}

// handleExpand toggles one row's expansion.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.mutate(w, r, func(t *core.Table) error {
		return t.ToggleExpand(req.DataIndex)
	})
}

// handleSetExpanded replaces the expanded rows.
func (s *Server) handleSetExpanded(w http.ResponseWriter, r *http.Request) {
	var rows any
	if err := decodeJSON(r, &rows); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.mutate(w, r, func(t *core.Table) error {
		return t.SetExpandedRows(rows)
	})
}

// handleDelete removes the selected rows.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	var deleted bool
	state, err := s.service.Do(r.Context(), id, func(t *core.Table) error {
		deleted = t.DeleteSelected()
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if deleted {
		logging.ForSession(r.Context(), id).Info("rows deleted", "remaining", state.Count)
	}
	writeJSON(w, deleteResponse{Deleted: deleted, State: state})
}

// handleDownload streams the table's download projection as CSV or XLSX.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		s.respondError(w, r, fmt.Errorf("%w: unsupported format %q", errBadRequest, format))
		return
	}

	sess, err := s.service.Session(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var (
		body        bytes.Buffer
		filename    string
		contentType string
		ok          = true
	)
	err = s.service.View(id, func(t *core.Table) error {
		if format == "xlsx" {
			var (
				cols []core.Column
				rows []core.DownloadRow
			)
			if cols, rows, ok = t.DownloadData(); !ok {
				return nil
			}
			filename = export.Filename(t.Options().DownloadOptions.Filename)
			contentType = export.ContentTypeXLSX
			return export.XLSX(&body, sess.DatasetKey, cols, rows)
		}
		var csv string
		csv, filename, ok = t.Download()
		contentType = "text/csv; charset=utf-8"
		body.WriteString(csv)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logging.ForSession(r.Context(), id).Info("table downloaded",
		"format", format,
		"bytes", body.Len(),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Write(body.Bytes())
}
