package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/publish"
)

// PostRequest is the body of POST /channels/post. The camelCase fields are
// accepted for older clients.
type PostRequest struct {
	ChannelID      string `json:"channel_id"`
	ProjectID      string `json:"project_id"`
	ChannelIDCamel string `json:"channelId"`
	ProjectIDCamel string `json:"projectId"`
}

func (req *PostRequest) normalize() {
	if req.ChannelID == "" {
		req.ChannelID = req.ChannelIDCamel
	}
	if req.ProjectID == "" {
		req.ProjectID = req.ProjectIDCamel
	}
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	req.ProjectID = strings.TrimSpace(req.ProjectID)
}

func (s *Server) listChannels(w http.ResponseWriter, r *http.Request) {
	OK(w, s.deps.Channels.List())
}

func (s *Server) refreshChannels(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Channels.Refresh(r.Context()); err != nil {
		log.Printf("refresh channels error: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}
	OK(w, s.deps.Channels.List())
}

func (s *Server) postToChannel(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	req.normalize()
	if req.ChannelID == "" || req.ProjectID == "" {
		JSONError(w, NewValidationError("channel_id and project_id are required"))
		return
	}

	record, err := s.deps.Publisher.Publish(r.Context(), req.ProjectID, req.ChannelID, publish.Options{})
	if errors.Is(err, publish.ErrPartialDelivery) {
		// The render is live in the channel; a retry would post it again.
		OK(w, PublishResponse{Record: record, Warning: "render posted, text failed"})
		return
	}
	if err != nil {
		s.writeError(w, "post to channel", err)
		return
	}
	OK(w, PublishResponse{Record: record})
}
