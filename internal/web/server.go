package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/randpick/internal/picker"
	"github.com/conorfennell/randpick/internal/service"
	"github.com/conorfennell/randpick/internal/storage"
	"github.com/conorfennell/randpick/internal/sync"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	svc          *service.Service
	db           *storage.DB
	syncer       *sync.Syncer
	router       *http.ServeMux
	historyLimit int
}

// NewServer creates and configures a new server.
func NewServer(svc *service.Service, db *storage.DB, syncer *sync.Syncer, historyLimit int) *Server {
	s := &Server{
		svc:          svc,
		db:           db,
		syncer:       syncer,
		router:       http.NewServeMux(),
		historyLimit: historyLimit,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.router.ServeHTTP(rec, r)
	slog.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /tables", s.handleListTables())
	s.router.HandleFunc("POST /tables", s.handleCreateTable())
	s.router.HandleFunc("PATCH /tables/{id}", s.handleRenameTable())
	s.router.HandleFunc("DELETE /tables/{id}", s.handleDeleteTable())

	s.router.HandleFunc("GET /tables/{id}/items", s.handleListItems())
	s.router.HandleFunc("POST /tables/{id}/items", s.handleAddItems())
	s.router.HandleFunc("PATCH /items/{id}", s.handleUpdateItem())
	s.router.HandleFunc("DELETE /items/{id}", s.handleDeleteItem())

	s.router.HandleFunc("POST /draw", s.handleDraw())
	s.router.HandleFunc("POST /tables/{id}/draw", s.handleDraw())
	s.router.HandleFunc("POST /tables/{id}/reset", s.handleReset())
	s.router.HandleFunc("GET /tables/{id}/history", s.handleHistory())

	s.router.HandleFunc("GET /preferences", s.handleGetPreferences())
	s.router.HandleFunc("PUT /preferences", s.handlePutPreferences())

	s.router.HandleFunc("GET /sources", s.handleListSources())
	s.router.HandleFunc("POST /sources", s.handleAddSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleListTables returns every table with counts.
func (s *Server) handleListTables() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables, err := s.svc.ListTables(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]tableJSON, 0, len(tables))
		for _, t := range tables {
			out = append(out, newTableJSON(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleCreateTable creates a table from a name and free-text items.
func (s *Server) handleCreateTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Items string `json:"items"`
		}
		if !decode(w, r, &req) {
			return
		}
		table, err := s.svc.CreateTable(r.Context(), req.Name, req.Items)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": table.ID, "name": table.Name})
	}
}

func (s *Server) handleRenameTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &req) {
			return
		}
		if err := s.svc.RenameTable(r.Context(), id, req.Name); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.svc.DeleteTable(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		items, err := s.svc.Items(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]itemJSON, 0, len(items))
		for _, it := range items {
			out = append(out, newItemJSON(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleAddItems parses free text and appends the new items.
func (s *Server) handleAddItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Input string `json:"input"`
		}
		if !decode(w, r, &req) {
			return
		}
		added, err := s.svc.AddItems(r.Context(), id, req.Input)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"added": added})
	}
}

func (s *Server) handleUpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		if err := s.svc.UpdateItem(r.Context(), id, req.Text); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.svc.RemoveItem(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleDraw draws from the table in the path, or the default table on /draw.
func (s *Server) handleDraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if r.PathValue("id") != "" {
			var ok bool
			if id, ok = pathID(w, r); !ok {
				return
			}
		}
		res, err := s.svc.Draw(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, drawJSON{
			TableID:   res.Table.ID,
			TableName: res.Table.Name,
			Item:      newItemJSON(res.Item),
			NoRepeat:  res.NoRepeat,
			Total:     res.Total,
			Remaining: res.Remaining,
		})
	}
}

func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if _, err := s.svc.Reset(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		limit := s.historyLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		_, draws, err := s.svc.History(r.Context(), id, limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]historyJSON, 0, len(draws))
		for _, d := range draws {
			out = append(out, historyJSON{Text: d.Text, DrawnAt: d.DrawnAt})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGetPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.svc.Preferences()
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newPreferencesJSON(p))
	}
}

// handlePutPreferences updates the fields present in the body.
// A default_table_id of 0 clears the default.
func (s *Server) handlePutPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DefaultTableID *int64 `json:"default_table_id"`
			NoRepeat       *bool  `json:"no_repeat"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.DefaultTableID != nil {
			var err error
			if *req.DefaultTableID == 0 {
				err = s.svc.ClearDefaultTable()
			} else {
				err = s.svc.SetDefaultTable(r.Context(), *req.DefaultTableID)
			}
			if err != nil {
				s.writeError(w, err)
				return
			}
		}
		if req.NoRepeat != nil {
			if err := s.svc.SetNoRepeat(*req.NoRepeat); err != nil {
				s.writeError(w, err)
				return
			}
		}
		s.handleGetPreferences()(w, r)
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]sourceJSON, 0, len(sources))
		for _, src := range sources {
			out = append(out, newSourceJSON(src))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if !decode(w, r, &req) {
			return
		}
		src, err := s.syncer.AddSource(r.Context(), req.Path)
		if err != nil {
			slog.Warn("Error adding source", "path", req.Path, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, newSourceJSON(*src))
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.syncer.RemoveSource(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync triggers a sync and returns the per-source reports.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.syncer.RunSync(r.Context()) // Run in the foreground to make the caller wait
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]syncReportJSON, 0, len(reports))
		for _, rep := range reports {
			out = append(out, newSyncReportJSON(rep))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sync.ErrSourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalid), errors.Is(err, service.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrLastTable),
		errors.Is(err, service.ErrNoTables),
		errors.Is(err, picker.ErrEmpty),
		errors.Is(err, picker.ErrExhausted):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		http.Error(w, "Internal Server Error", status)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
