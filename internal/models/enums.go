// Package models defines domain models for the estate content service.
package models

// ArtifactKind identifies which derived artifact of a project is meant.
type ArtifactKind string

const (
	KindRender ArtifactKind = "render"
	KindText   ArtifactKind = "text"
)

// ArtifactKinds lists every artifact kind in a stable order.
var ArtifactKinds = []ArtifactKind{KindRender, KindText}

// ParseArtifactKind converts a string to ArtifactKind.
func ParseArtifactKind(s string) (ArtifactKind, bool) {
	switch s {
	case "render":
		return KindRender, true
	case "text":
		return KindText, true
	default:
		return "", false
	}
}

// Status is the generation state of one artifact kind of a project.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
)

// Provenance records where an artifact came from.
type Provenance string

const (
	ProvenanceRemote   Provenance = "remote"
	ProvenanceFallback Provenance = "fallback"
)

// Style is the visual style of a render.
type Style string

const (
	StyleModern       Style = "modern"
	StyleLuxury       Style = "luxury"
	StyleMinimalist   Style = "minimalist"
	StyleArabic       Style = "arabic"
	StyleScandinavian Style = "scandinavian"
)

// DefaultStyle is used whenever a style is missing or unknown.
const DefaultStyle = StyleModern

// Styles lists every known style in display order.
var Styles = []Style{StyleModern, StyleLuxury, StyleMinimalist, StyleArabic, StyleScandinavian}

// ParseStyle converts a string to Style. Unknown values map to DefaultStyle.
func ParseStyle(s string) Style {
	switch Style(s) {
	case StyleModern, StyleLuxury, StyleMinimalist, StyleArabic, StyleScandinavian:
		return Style(s)
	default:
		return DefaultStyle
	}
}

// Locale is the language used for prompts and descriptions.
type Locale string

const (
	LocaleRU Locale = "ru"
	LocaleEN Locale = "en"
)

// DefaultLocale is used whenever a locale is missing or unknown.
const DefaultLocale = LocaleRU

// ParseLocale converts a string to Locale. Unknown values map to DefaultLocale.
func ParseLocale(s string) Locale {
	switch Locale(s) {
	case LocaleRU, LocaleEN:
		return Locale(s)
	default:
		return DefaultLocale
	}
}

// Tone steers how a description is rewritten on regeneration.
type Tone string

const (
	ToneDefault    Tone = "default"
	ToneEmotional  Tone = "emotional"
	ToneInvestment Tone = "investment"
	ToneFamily     Tone = "family"
)

// ParseTone converts a string to Tone. Unknown values map to ToneDefault.
func ParseTone(s string) Tone {
	switch Tone(s) {
	case ToneEmotional, ToneInvestment, ToneFamily:
		return Tone(s)
	default:
		return ToneDefault
	}
}

// PropertyType is the kind of real-estate unit.
type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyVilla     PropertyType = "villa"
	PropertyPenthouse PropertyType = "penthouse"
	PropertyStudio    PropertyType = "studio"
	PropertyTownhouse PropertyType = "townhouse"
)

// SizeUnit is the unit of the project's area.
type SizeUnit string

const (
	SizeSqft SizeUnit = "sqft"
	SizeSqm  SizeUnit = "sqm"
)

// ParseSizeUnit converts a string to SizeUnit, defaulting to square feet.
func ParseSizeUnit(s string) SizeUnit {
	if SizeUnit(s) == SizeSqm {
		return SizeSqm
	}
	return SizeSqft
}
