package fallback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// palette is the color set of a placeholder render.
type palette struct {
	bg        string
	primary   string
	secondary string
	accent    string
}

var palettes = map[models.Style]palette{
	models.StyleModern:       {bg: "#e8e8e8", primary: "#2a5a8a", secondary: "#87ceeb", accent: "#4a90a4"},
	models.StyleLuxury:       {bg: "#1a1a1a", primary: "#8b7355", secondary: "#d4af37", accent: "#8b4513"},
	models.StyleMinimalist:   {bg: "#f5f5f5", primary: "#666666", secondary: "#999999", accent: "#cccccc"},
	models.StyleArabic:       {bg: "#2d1f1f", primary: "#8b0000", secondary: "#d4af37", accent: "#4a2c2a"},
	models.StyleScandinavian: {bg: "#f0ebe5", primary: "#8b7355", secondary: "#deb887", accent: "#d2b48c"},
}

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="512" height="512" viewBox="0 0 512 512">` +
	`<rect fill="%[1]s" width="512" height="512"/>` +
	`<rect fill="%[2]s" x="40" y="40" width="432" height="340" rx="8"/>` +
	`<rect fill="%[3]s" x="60" y="60" width="120" height="100" opacity="0.4" rx="4"/>` +
	`<rect fill="%[3]s" x="200" y="60" width="120" height="100" opacity="0.4" rx="4"/>` +
	`<rect fill="%[4]s" x="60" y="200" width="160" height="140" rx="4"/>` +
	`<rect fill="%[4]s" x="240" y="200" width="192" height="140" rx="4"/>` +
	`<text x="256" y="460" text-anchor="middle" fill="%[2]s" font-family="Arial" font-size="24" font-weight="bold">3D Render - %[5]s</text>` +
	`<text x="256" y="490" text-anchor="middle" fill="%[2]s" font-family="Arial" font-size="16">DubaiEstate AI</text>` +
	`</svg>`

// ImagePrefix starts every placeholder image reference.
const ImagePrefix = "data:image/svg+xml,"

// Image returns a placeholder render for the style as an SVG data URL.
// Unknown styles use the modern palette.
func Image(style models.Style) models.ImageRef {
	style = models.ParseStyle(string(style))
	return models.ImageRef(ImagePrefix + escapeComponent(SVG(style)))
}

// SVG returns the raw placeholder document for the style.
func SVG(style models.Style) string {
	style = models.ParseStyle(string(style))
	c := palettes[style]
	return fmt.Sprintf(svgTemplate, c.bg, c.primary, c.secondary, c.accent, style)
}

// escapeComponent percent-encodes s for use inside a data URL.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
