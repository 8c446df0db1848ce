// Package prompt builds generation requests from project data.
// All builders are pure and total: any project, including an empty one,
// yields a well-formed prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Modality is the kind of output a prompt asks for.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Spec is a generation request payload.
type Spec struct {
	Modality Modality
	System   string
	User     string
	// ImageURL is an optional reference image (the floor plan).
	ImageURL models.ImageRef
}

// RewriteOptions control how an existing description is rewritten.
type RewriteOptions struct {
	Tone  models.Tone
	Focus string
}

// BuildTextPrompt returns the description prompt for a project.
func BuildTextPrompt(p models.Project, locale models.Locale) Spec {
	ph := phrasesFor(locale)
	a := p.Attributes

	lines := []string{
		ph.header,
		"",
		fmt.Sprintf("%s: %s", ph.typeLabel, propertyLabel(ph, a.PropertyType)),
		fmt.Sprintf("%s: %s", ph.bedroomsLabel, orDefault(a.Bedrooms, ph.notSpecified)),
		fmt.Sprintf("%s: %s", ph.bathroomsLabel, orDefault(a.Bathrooms, ph.notSpecified)),
		fmt.Sprintf("%s: %s", ph.areaLabel, area(ph, a)),
		fmt.Sprintf("%s: %s", ph.locationLabel, Location(a, locale)),
		fmt.Sprintf("%s: %s", ph.priceLabel, price(ph, a)),
		fmt.Sprintf("%s: %s", ph.featuresLabel, orDefault(a.CustomDescription, ph.notSpecified)),
		"",
		ph.footer,
	}

	return Spec{
		Modality: ModalityText,
		System:   ph.system,
		User:     strings.Join(lines, "\n"),
	}
}

// BuildImagePrompt returns the render prompt for a project in the given style.
func BuildImagePrompt(p models.Project, style models.Style) Spec {
	style = models.ParseStyle(string(style))
	user := fmt.Sprintf(
		"Transform this floor plan into a beautiful 3D interior render in %s style. %s. Make it photorealistic, well-lit, professional architectural visualization. Dubai real estate.",
		style, StyleDescriptor(style))

	return Spec{
		Modality: ModalityImage,
		User:     user,
		ImageURL: p.Attributes.FloorPlan,
	}
}

// BuildRewritePrompt returns a prompt that rewrites an existing description.
func BuildRewritePrompt(existing string, opts RewriteOptions, locale models.Locale) Spec {
	ph := phrasesFor(locale)
	tone := ph.tones[models.ParseTone(string(opts.Tone))]

	head := fmt.Sprintf(ph.rewrite, tone)
	if focus := strings.TrimSpace(opts.Focus); focus != "" {
		head += " " + fmt.Sprintf(ph.focus, focus)
	}

	return Spec{
		Modality: ModalityText,
		System:   ph.system,
		User:     head + "\n\n" + existing,
	}
}

// Location returns the project's location, its tower, or the locale's generic phrase.
func Location(a models.Attributes, locale models.Locale) string {
	if loc := strings.TrimSpace(a.Location); loc != "" {
		return loc
	}
	if tower := strings.TrimSpace(a.Tower); tower != "" {
		return tower
	}
	return phrasesFor(locale).genericLocation
}

func propertyLabel(ph phrases, t models.PropertyType) string {
	if label, ok := ph.propertyTypes[t]; ok {
		return label
	}
	return orDefault(string(t), ph.genericProperty)
}

func area(ph phrases, a models.Attributes) string {
	size := strings.TrimSpace(a.Size)
	if size == "" {
		return ph.notSpecified
	}
	unit := ph.sqft
	if a.SizeUnit == models.SizeSqm {
		unit = ph.sqm
	}
	return size + " " + unit
}

func price(ph phrases, a models.Attributes) string {
	p := strings.TrimSpace(a.Price)
	if p == "" {
		return ph.onRequest
	}
	if c := strings.TrimSpace(a.Currency); c != "" {
		return p + " " + c
	}
	return p
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
