package models

import (
	"time"
)

// ImageRef references an image: an http(s) URL or a data URL.
type ImageRef string

// Attributes are the user-entered facts about a property.
// Every field is optional; consumers substitute placeholders.
type Attributes struct {
	PropertyType      PropertyType `json:"property_type,omitempty"`
	Bedrooms          string       `json:"bedrooms,omitempty"`
	Bathrooms         string       `json:"bathrooms,omitempty"`
	Size              string       `json:"size,omitempty"`
	SizeUnit          SizeUnit     `json:"size_unit,omitempty"`
	Location          string       `json:"location,omitempty"`
	Tower             string       `json:"tower,omitempty"`
	Price             string       `json:"price,omitempty"`
	Currency          string       `json:"currency,omitempty"`
	CustomDescription string       `json:"custom_description,omitempty"`
	FloorPlan         ImageRef     `json:"floor_plan,omitempty"`
}

// Artifact is a generated render or description.
type Artifact struct {
	Kind           ArtifactKind `json:"kind"`
	Value          string       `json:"value"`
	Provenance     Provenance   `json:"provenance"`
	Style          Style        `json:"style,omitempty"`
	Locale         Locale       `json:"locale,omitempty"`
	Model          string       `json:"model,omitempty"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// Project is a described real-estate unit and its derived artifacts.
type Project struct {
	ID           string          `json:"id"`
	Attributes   Attributes      `json:"attributes"`
	Style        Style           `json:"style"`
	Locale       Locale          `json:"locale"`
	Render       *Artifact       `json:"render,omitempty"`
	Text         *Artifact       `json:"text,omitempty"`
	RenderStatus Status          `json:"render_status"`
	TextStatus   Status          `json:"text_status"`
	Publications []PublishRecord `json:"publications"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewProject creates a new Project with idle artifacts and initialized timestamps.
func NewProject(id string, attrs Attributes, style Style, locale Locale) *Project {
	now := time.Now()
	return &Project{
		ID:           id,
		Attributes:   attrs,
		Style:        ParseStyle(string(style)),
		Locale:       ParseLocale(string(locale)),
		RenderStatus: StatusIdle,
		TextStatus:   StatusIdle,
		Publications: []PublishRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Status returns the generation status of the given artifact kind.
func (p *Project) Status(kind ArtifactKind) Status {
	if kind == KindText {
		return p.TextStatus
	}
	return p.RenderStatus
}

// Artifact returns the current artifact of the given kind, or nil.
func (p *Project) Artifact(kind ArtifactKind) *Artifact {
	if kind == KindText {
		return p.Text
	}
	return p.Render
}

// Clone returns a deep copy that shares no mutable state with p.
func (p *Project) Clone() Project {
	c := *p
	if p.Render != nil {
		r := *p.Render
		c.Render = &r
	}
	if p.Text != nil {
		t := *p.Text
		c.Text = &t
	}
	c.Publications = make([]PublishRecord, len(p.Publications))
	for i, rec := range p.Publications {
		c.Publications[i] = rec.clone()
	}
	return c
}
