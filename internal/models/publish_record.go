package models

import "time"

// PublishOutcome is the result of one delivery attempt.
type PublishOutcome string

const (
	OutcomeDelivered PublishOutcome = "delivered"
	OutcomeFailed    PublishOutcome = "failed"
	OutcomePartial   PublishOutcome = "partial" // render posted, text not
)

// PublishRecord records one publish attempt. Records are never modified.
type PublishRecord struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	ChannelID   string         `json:"channel_id"`
	Render      Artifact       `json:"render"`
	Text        *Artifact      `json:"text,omitempty"`
	PublishedBy string         `json:"published_by,omitempty"`
	Outcome     PublishOutcome `json:"outcome"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (r PublishRecord) clone() PublishRecord {
	if r.Text != nil {
		t := *r.Text
		r.Text = &t
	}
	return r
}
