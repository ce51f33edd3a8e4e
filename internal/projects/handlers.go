package projects

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/utils"
	"github.com/go-chi/chi/v5"
)

// Handlers serves the user and project endpoints.
type Handlers struct {
	store Store
}

// NewHandlers creates handlers over store.
func NewHandlers(store Store) *Handlers {
	return &Handlers{store: store}
}

func (h *Handlers) IdentifyHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	username := strings.TrimSpace(input.Username)
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username is required"})
		return
	}

	user, err := h.store.IdentifyUser(r.Context(), username)
	if err != nil {
		logger.Component("projects").Error().Err(err).Msg("identify user failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	attribute := strings.TrimSpace(r.URL.Query().Get("attribute"))

	projects, err := h.store.ListProjects(r.Context(), userID, attribute)
	if err != nil {
		logger.Component("projects").Error().Err(err).Str("user_id", userID).Msg("list projects failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if projects == nil {
		projects = []Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handlers) SaveProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input struct {
		Name    string          `json:"name"`
		Filters json.RawMessage `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		input.Name = ""
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Project name is required"})
		return
	}

	filters := bytes.TrimSpace(input.Filters)
	switch {
	case len(filters) == 0 || bytes.Equal(filters, []byte("null")):
		filters = []byte("[]")
	case filters[0] != '[':
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filters must be an array"})
		return
	}

	project, err := h.store.SaveProject(r.Context(), userID, name, filters)
	if err != nil {
		logger.Component("projects").Error().Err(err).Str("user_id", userID).Msg("save project failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handlers) LoadProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.GetProject(r.Context(), chi.URLParam(r, "project_id"))
	if errors.Is(err, ErrProjectNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// UnavailableHandler answers every project route when no database is configured.
func UnavailableHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Project storage is not configured"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.LogError("projects", "encode", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
