package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Response is a standard API response wrapper.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encode response error: %v", err)
	}
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	resp := Response{Error: err}
	json.NewEncoder(w).Encode(resp)
}

// Created writes a 201 Created response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Accepted writes a 202 Accepted response.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

// OK writes a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ProjectSummary is the list view of a project, without artifact payloads.
type ProjectSummary struct {
	ID               string        `json:"id"`
	Location         string        `json:"location"`
	PropertyType     string        `json:"property_type,omitempty"`
	Style            models.Style  `json:"style"`
	Locale           models.Locale `json:"locale"`
	RenderStatus     models.Status `json:"render_status"`
	TextStatus       models.Status `json:"text_status"`
	PublicationCount int           `json:"publication_count"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// GenerationResponse is returned by the generation endpoints.
// Artifact is nil when the generation was submitted asynchronously.
type GenerationResponse struct {
	ProjectID string              `json:"project_id"`
	Kind      models.ArtifactKind `json:"kind"`
	Status    models.Status       `json:"status"`
	Artifact  *models.Artifact    `json:"artifact,omitempty"`
}

// PublishResponse is returned by the channel post endpoint.
type PublishResponse struct {
	Record  models.PublishRecord `json:"record"`
	Warning string               `json:"warning,omitempty"`
}
