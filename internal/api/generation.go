package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/generation"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// RenderRequest is the body of the render generation endpoints.
type RenderRequest struct {
	Style string `json:"style"`
	Async bool   `json:"async"`
}

// TextRequest is the body of the text generation endpoints.
type TextRequest struct {
	Locale string `json:"locale"`
	Tone   string `json:"tone"`
	Focus  string `json:"focus"`
	Async  bool   `json:"async"`
}

// TaskResponse describes a running generation.
type TaskResponse struct {
	ProjectID  string              `json:"project_id"`
	Kind       models.ArtifactKind `json:"kind"`
	Regenerate bool                `json:"regenerate"`
	StartedAt  string              `json:"started_at"`
}

func (s *Server) generateRender(regenerate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenderRequest
		if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
			JSONError(w, NewBadRequest("invalid request body"))
			return
		}
		opts := generation.Options{}
		if req.Style != "" {
			opts.Style = models.ParseStyle(req.Style)
		}
		s.runGeneration(w, r, models.KindRender, opts, regenerate, req.Async)
	}
}

func (s *Server) generateText(regenerate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TextRequest
		if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
			JSONError(w, NewBadRequest("invalid request body"))
			return
		}
		if err := validateFocus(req.Focus); err != nil {
			JSONError(w, NewValidationError(err.Error()))
			return
		}
		opts := generation.Options{Focus: req.Focus}
		if req.Locale != "" {
			opts.Locale = models.ParseLocale(req.Locale)
		}
		if req.Tone != "" {
			opts.Tone = models.ParseTone(req.Tone)
		}
		s.runGeneration(w, r, models.KindText, opts, regenerate, req.Async)
	}
}

// runGeneration either waits for the artifact or, for async requests,
// answers 202 as soon as the generation is pending.
func (s *Server) runGeneration(w http.ResponseWriter, r *http.Request, kind models.ArtifactKind, opts generation.Options, regenerate, async bool) {
	projectID := chi.URLParam(r, "projectId")
	op := "generate " + string(kind)
	if regenerate {
		op = "regenerate " + string(kind)
	}

	if async {
		results, err := s.deps.Orchestrator.Submit(r.Context(), projectID, kind, opts, regenerate)
		if err != nil {
			s.writeError(w, op, err)
			return
		}
		go logResult(op, projectID, results)
		Accepted(w, GenerationResponse{
			ProjectID: projectID,
			Kind:      kind,
			Status:    models.StatusPending,
		})
		return
	}

	var (
		artifact models.Artifact
		err      error
	)
	if regenerate {
		artifact, err = s.deps.Orchestrator.Regenerate(r.Context(), projectID, kind, opts)
	} else {
		artifact, err = s.deps.Orchestrator.Generate(r.Context(), projectID, kind, opts)
	}
	if err != nil {
		if r.Context().Err() != nil {
			// The client went away; the generation still commits.
			log.Printf("%s for project %s: client disconnected", op, projectID)
			return
		}
		s.writeError(w, op, err)
		return
	}

	OK(w, GenerationResponse{
		ProjectID: projectID,
		Kind:      kind,
		Status:    models.StatusReady,
		Artifact:  &artifact,
	})
}

func logResult(op, projectID string, results <-chan generation.Result) {
	res := <-results
	if res.Err != nil {
		log.Printf("%s for project %s error: %v", op, projectID, res.Err)
		return
	}
	log.Printf("%s for project %s done (%s)", op, projectID, res.Artifact.Provenance)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.deps.Orchestrator.Active()
	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = TaskResponse{
			ProjectID:  t.ProjectID,
			Kind:       t.Kind,
			Regenerate: t.Regenerate,
			StartedAt:  t.StartedAt.Format(time.RFC3339),
		}
	}
	OK(w, resp)
}
