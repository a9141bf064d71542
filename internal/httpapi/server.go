// Package httpapi exposes the workspace engine over a local HTTP API,
// including a websocket event stream per workspace.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/notionspark/gospark/internal/engine"
	"github.com/notionspark/gospark/internal/store"
	"github.com/notionspark/gospark/pkg/cache"
	"github.com/notionspark/gospark/pkg/health"
	"github.com/notionspark/gospark/pkg/tasks"
	"github.com/notionspark/gospark/pkg/tree"
)

type ServerConfig struct {
	MaxBodyBytes int64
}

type Server struct {
	engine *engine.Engine
	cfg    ServerConfig
	log    *logrus.Entry
}

func NewServer(e *engine.Engine, log *logrus.Logger) *Server {
	return NewServerWithConfig(e, log, ServerConfig{})
}

func NewServerWithConfig(e *engine.Engine, log *logrus.Logger, cfg ServerConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		engine: e,
		cfg:    cfg,
		log:    log.WithField("component", "httpapi"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, healthPayload{
			Snapshot: s.engine.Health(),
			Cache:    s.engine.CacheStats(),
		})
		return
	}

	correlationID := getCorrelationID(r)
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" {
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
		return
	}

	switch parts[1] {
	case "workspaces":
		s.routeWorkspaces(w, r, parts, correlationID)
	case "files":
		s.routeFiles(w, r, parts, correlationID)
	case "tasks":
		s.routeTasks(w, r, parts, correlationID)
	case "templates":
		s.routeTemplates(w, r, parts, correlationID)
	case "sync":
		s.routeSync(w, r, parts, correlationID)
	case "export":
		if len(parts) == 2 && r.Method == http.MethodGet {
			s.handleExport(w, correlationID)
			return
		}
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	case "import":
		if len(parts) == 2 && r.Method == http.MethodPost {
			s.handleImport(w, r, correlationID)
			return
		}
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

// === Workspaces ===

func (s *Server) routeWorkspaces(w http.ResponseWriter, r *http.Request, parts []string, correlationID string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		list, err := s.engine.ListWorkspaces()
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"workspaces": list})
	case len(parts) == 2 && r.Method == http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if !s.decodeJSONBody(w, r, correlationID, &req) {
			return
		}
		ws, err := s.engine.CreateWorkspace(req.Name)
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusCreated, ws)
	case len(parts) == 3 && r.Method == http.MethodGet:
		ws, err := s.engine.GetWorkspace(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, ws)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		if err := s.engine.DeleteWorkspace(parts[2]); err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case len(parts) == 4:
		s.routeWorkspaceSub(w, r, parts[2], parts[3], correlationID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

func (s *Server) routeWorkspaceSub(w http.ResponseWriter, r *http.Request, workspaceID, sub, correlationID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", correlationID)
		return
	}
	switch sub {
	case "tree":
		t, err := s.engine.Tree(workspaceID)
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roots": toTreeNodes(t.Roots)})
	case "graph":
		g, err := s.engine.Graph(workspaceID)
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, g)
	case "search":
		s.handleSearch(w, r, workspaceID, correlationID)
	case "integrity":
		report, err := s.engine.CheckIntegrity(workspaceID)
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case "tasks":
		s.handleListTasks(w, r, workspaceID, correlationID)
	case "events":
		s.handleEvents(w, r, workspaceID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, workspaceID, correlationID string) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "query parameter q is required", correlationID)
		return
	}
	opts := &store.SearchOptions{
		WorkspaceID: workspaceID,
		Type:        store.FileType(q.Get("type")),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer", correlationID)
			return
		}
		opts.Limit = n
	}
	hits, err := s.engine.Search(query, opts)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// === Files ===

func (s *Server) routeFiles(w http.ResponseWriter, r *http.Request, parts []string, correlationID string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.handleCreateFile(w, r, correlationID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		f, err := s.engine.GetFile(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case len(parts) == 3 && r.Method == http.MethodPatch:
		s.handleUpdateFile(w, r, parts[2], correlationID)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		if err := s.engine.DeleteFile(parts[2]); err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case len(parts) == 4 && parts[3] == "move" && r.Method == http.MethodPost:
		s.handleMoveFile(w, r, parts[2], correlationID)
	case len(parts) == 4 && parts[3] == "versions" && r.Method == http.MethodGet:
		versions, err := s.engine.FileVersions(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
	case len(parts) == 4 && parts[3] == "restore" && r.Method == http.MethodPost:
		s.handleRestoreFile(w, r, parts[2], correlationID)
	case len(parts) == 4 && parts[3] == "backlinks" && r.Method == http.MethodGet:
		s.handleBacklinks(w, parts[2], correlationID)
	case len(parts) == 4 && parts[3] == "suggestions" && r.Method == http.MethodGet:
		sugg, err := s.engine.Suggestions(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"suggestions":       sugg,
			"newNoteCandidates": s.engine.PromotedCandidates(),
		})
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		WorkspaceID string   `json:"workspaceId"`
		Name        string   `json:"name"`
		Type        string   `json:"type"`
		ParentID    string   `json:"parentId"`
		Content     string   `json:"content"`
		Tags        []string `json:"tags"`
		TemplateID  string   `json:"templateId"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	f, err := s.engine.CreateFile(engine.CreateFileInput{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Type:        store.FileType(req.Type),
		ParentID:    req.ParentID,
		Content:     req.Content,
		Tags:        req.Tags,
		TemplateID:  req.TemplateID,
	})
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request, id, correlationID string) {
	var req struct {
		Name     *string   `json:"name"`
		Content  *string   `json:"content"`
		Tags     *[]string `json:"tags"`
		IsPinned *bool     `json:"isPinned"`
		Favorite *bool     `json:"favorite"`
		Reason   string    `json:"reason"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	f, err := s.engine.UpdateFile(id, engine.UpdateFileInput{
		Name:     req.Name,
		Content:  req.Content,
		Tags:     req.Tags,
		IsPinned: req.IsPinned,
		Favorite: req.Favorite,
		Reason:   req.Reason,
	})
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleMoveFile(w http.ResponseWriter, r *http.Request, id, correlationID string) {
	var req struct {
		ParentID string `json:"parentId"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	f, err := s.engine.MoveFile(id, req.ParentID)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleRestoreFile(w http.ResponseWriter, r *http.Request, id, correlationID string) {
	var req struct {
		Version int `json:"version"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if req.Version <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "version must be positive", correlationID)
		return
	}
	f, err := s.engine.RestoreFileVersion(id, req.Version)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleBacklinks(w http.ResponseWriter, id, correlationID string) {
	f, err := s.engine.GetFile(id)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	back, err := s.engine.Backlinks(f.WorkspaceID, id)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": back})
}

// === Tasks ===

func (s *Server) routeTasks(w http.ResponseWriter, r *http.Request, parts []string, correlationID string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.handleCreateTask(w, r, correlationID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		task, err := s.engine.GetTask(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		if err := s.engine.DeleteTask(parts[2]); err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case len(parts) == 4 && parts[3] == "toggle" && r.Method == http.MethodPost:
		task, err := s.engine.ToggleTask(parts[2])
		if err != nil {
			s.writeEngineError(w, err, correlationID)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		WorkspaceID string   `json:"workspaceId"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Priority    string   `json:"priority"`
		Tags        []string `json:"tags"`
		DueAt       *int64   `json:"dueAt"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	task, err := s.engine.CreateTask(tasks.CreateInput{
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    store.TaskPriority(req.Priority),
		Tags:        req.Tags,
		DueAt:       req.DueAt,
	})
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, workspaceID, correlationID string) {
	q := r.URL.Query()
	filter := tasks.Filter{
		Status:   store.TaskStatus(q.Get("status")),
		Priority: store.TaskPriority(q.Get("priority")),
		Tag:      q.Get("tag"),
	}
	list, err := s.engine.ListTasks(workspaceID, filter)
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

// === Templates ===

func (s *Server) routeTemplates(w http.ResponseWriter, r *http.Request, parts []string, correlationID string) {
	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"templates": s.engine.Templates().List()})
	case len(parts) == 3 && r.Method == http.MethodGet:
		tpl, ok := s.engine.Templates().Get(parts[2])
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "template not found", correlationID)
			return
		}
		writeJSON(w, http.StatusOK, tpl)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

// === Sync ===

func (s *Server) routeSync(w http.ResponseWriter, r *http.Request, parts []string, correlationID string) {
	switch {
	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.engine.SyncState())
	case len(parts) == 3 && parts[2] == "online" && r.Method == http.MethodPost:
		var req struct {
			Online bool `json:"online"`
		}
		if !s.decodeJSONBody(w, r, correlationID, &req) {
			return
		}
		s.engine.SetOnline(req.Online)
		writeJSON(w, http.StatusOK, s.engine.SyncState())
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

// === Snapshots ===

func (s *Server) handleExport(w http.ResponseWriter, correlationID string) {
	data, err := s.engine.Export()
	if err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, correlationID string) {
	body, ok := s.readRequestBody(w, r, correlationID)
	if !ok {
		return
	}
	if err := s.engine.Import(body); err != nil {
		s.writeEngineError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// === Helpers ===

// healthPayload joins the runtime snapshot with the file cache counters.
type healthPayload struct {
	health.Snapshot
	Cache cache.Stats `json:"cache"`
}

// treeNode is the JSON shape of the file tree; Parent pointers are dropped
// to keep the structure acyclic.
type treeNode struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	SortOrder float64    `json:"sortOrder"`
	Children  []treeNode `json:"children,omitempty"`
}

func toTreeNodes(nodes []*tree.Node) []treeNode {
	out := make([]treeNode, len(nodes))
	for i, n := range nodes {
		out[i] = treeNode{
			ID:        n.ID,
			Name:      n.Name,
			Type:      n.Type,
			SortOrder: n.SortOrder,
			Children:  toTreeNodes(n.Children),
		}
	}
	return out
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error, correlationID string) {
	switch {
	case errors.Is(err, engine.ErrNotFound) || errors.Is(err, tasks.ErrNotFound) || errors.Is(err, tree.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), correlationID)
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), correlationID)
	case errors.Is(err, tree.ErrCreatesCycle) || errors.Is(err, tree.ErrNotContainer) || errors.Is(err, tree.ErrSelfParent):
		writeError(w, http.StatusUnprocessableEntity, "invalid_move", err.Error(), correlationID)
	default:
		s.log.WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error", correlationID)
	}
}

func getCorrelationID(r *http.Request) string {
	return r.Header.Get("X-Correlation-Id")
}

func (s *Server) readRequestBody(w http.ResponseWriter, r *http.Request, correlationID string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds configured limit", correlationID)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body", correlationID)
		return nil, false
	}
	return body, true
}

func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, correlationID string, dst any) bool {
	body, ok := s.readRequestBody(w, r, correlationID)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", correlationID)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, correlationID string) {
	writeJSON(w, status, map[string]any{
		"code":          code,
		"message":       message,
		"correlationId": correlationID,
	})
}
