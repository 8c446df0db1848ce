// Package fallback synthesizes artifacts locally when the remote generator
// cannot be used. Every function is deterministic, performs no I/O and
// never fails.
package fallback

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

var descriptions = map[models.Locale]*template.Template{
	models.LocaleEN: template.Must(template.ParseFS(templateFS, "templates/description_en.txt")),
	models.LocaleRU: template.Must(template.ParseFS(templateFS, "templates/description_ru.txt")),
}

// descriptionData contains data for description templates.
type descriptionData struct {
	Type     string
	Location string
	Bedrooms string
	Size     string
	Unit     string
	Price    string
}

// wording holds the fixed per-locale words used for missing fields.
type wording struct {
	apartment string
	area      string
	spacious  string
	sqft      string
	sqm       string
}

var localeWording = map[models.Locale]wording{
	models.LocaleEN: {apartment: "apartment", area: "area", spacious: "spacious", sqft: "sq ft", sqm: "sq m"},
	models.LocaleRU: {apartment: "квартира", area: "районе", spacious: "просторная", sqft: "кв. футов", sqm: "кв. метров"},
}

// Text returns the templated description for a project in the given locale.
func Text(p models.Project, locale models.Locale) string {
	locale = models.ParseLocale(string(locale))
	w := localeWording[locale]
	a := p.Attributes

	data := descriptionData{
		Type:     orDefault(string(a.PropertyType), w.apartment),
		Location: orDefault(a.Location, orDefault(a.Tower, w.area)),
		Bedrooms: orDefault(a.Bedrooms, w.spacious),
		Size:     strings.TrimSpace(a.Size),
		Unit:     w.sqft,
	}
	if a.SizeUnit == models.SizeSqm {
		data.Unit = w.sqm
	}
	if price := strings.TrimSpace(a.Price); price != "" {
		data.Price = strings.TrimSpace(price + " " + strings.TrimSpace(a.Currency))
	}

	var buf bytes.Buffer
	// Executing a parsed template against a plain struct cannot fail.
	_ = descriptions[locale].Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
