package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// APIDocHandler serves the OpenAPI description of the REST surface.
type APIDocHandler struct {
	specPath string
	baseDir  string
}

// NewAPIDocHandler creates an API doc handler with path validation
func NewAPIDocHandler(specPath string) *APIDocHandler {
	// Resolve absolute paths to prevent directory traversal
	absPath, _ := filepath.Abs(specPath)
	baseDir, _ := filepath.Abs(filepath.Dir(specPath))

	return &APIDocHandler{
		specPath: absPath,
		baseDir:  baseDir,
	}
}

// RegisterRoutes registers API doc routes
func (h *APIDocHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods("GET")
}

// validatePath ensures the file path is within the allowed directory
func (h *APIDocHandler) validatePath() error {
	absPath, err := filepath.Abs(filepath.Clean(h.specPath))
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(h.baseDir, absPath)
	if err != nil {
		return err
	}

	if filepath.IsAbs(relPath) || relPath == ".." || len(relPath) > 2 && relPath[:3] == "../" {
		return os.ErrPermission
	}

	return nil
}

func (h *APIDocHandler) readSpec(w http.ResponseWriter) ([]byte, bool) {
	if err := h.validatePath(); err != nil {
		http.Error(w, "API specification not found", http.StatusNotFound)
		return nil, false
	}

	data, err := os.ReadFile(h.specPath)
	if err != nil {
		http.Error(w, "API specification not found", http.StatusNotFound)
		return nil, false
	}
	return data, true
}

// ServeYAML serves the API description in YAML format
func (h *APIDocHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readSpec(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(data); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// ServeJSON serves the API description in JSON format
func (h *APIDocHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readSpec(w)
	if !ok {
		return
	}

	var yamlData map[string]any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		http.Error(w, "Failed to parse API specification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(yamlData); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
