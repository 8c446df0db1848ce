package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// CreateProjectRequest is the body of POST /projects. Attribute fields are
// sent flat, next to the style and locale.
type CreateProjectRequest struct {
	models.Attributes
	Style  string `json:"style"`
	Locale string `json:"locale"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects := s.deps.Store.List()
	resp := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		resp[i] = projectSummary(p)
	}
	OK(w, resp)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	if err := normalizeAttributes(&req.Attributes); err != nil {
		JSONError(w, NewValidationError(err.Error()))
		return
	}

	locale := s.config.DefaultLocale
	if req.Locale != "" {
		locale = models.ParseLocale(req.Locale)
	}
	p := s.deps.Store.Create(req.Attributes, models.Style(req.Style), locale)
	log.Printf("project created: %s (%s)", p.ID, p.Attributes.Location)
	Created(w, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "get project", err)
		return
	}
	OK(w, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Store.Delete(id); err != nil {
		s.writeError(w, "delete project", err)
		return
	}
	log.Printf("project deleted: %s", id)
	NoContent(w)
}

func (s *Server) listPublications(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "list publications", err)
		return
	}
	OK(w, p.Publications)
}

// writeError maps err to its API error; unmapped errors are logged.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	apiErr, known := errorFor(err)
	if !known {
		log.Printf("%s error: %v", op, err)
	}
	JSONError(w, apiErr)
}

// decodeBody decodes a JSON body capped at limit bytes. An empty body
// leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func projectSummary(p models.Project) ProjectSummary {
	return ProjectSummary{
		ID:               p.ID,
		Location:         p.Attributes.Location,
		PropertyType:     string(p.Attributes.PropertyType),
		Style:            p.Style,
		Locale:           p.Locale,
		RenderStatus:     p.RenderStatus,
		TextStatus:       p.TextStatus,
		PublicationCount: len(p.Publications),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}
