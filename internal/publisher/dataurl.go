package publisher

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// inlineImage is a decoded data: URL.
type inlineImage struct {
	MIME string
	Data []byte
}

// isDataURL reports whether ref carries the image inline.
func isDataURL(ref models.ImageRef) bool {
	return strings.HasPrefix(string(ref), "data:")
}

// decodeDataURL decodes "data:<mime>[;base64],<payload>".
func decodeDataURL(ref models.ImageRef) (inlineImage, error) {
	s := strings.TrimPrefix(string(ref), "data:")
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || len(s) == len(string(ref)) {
		return inlineImage{}, fmt.Errorf("malformed data URL")
	}

	mime := meta
	encoded := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		mime = m
		encoded = true
	}
	if mime == "" {
		mime = "text/plain"
	}

	if encoded {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return inlineImage{}, fmt.Errorf("decode data URL: %w", err)
		}
		return inlineImage{MIME: mime, Data: data}, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return inlineImage{}, fmt.Errorf("decode data URL: %w", err)
	}
	return inlineImage{MIME: mime, Data: []byte(decoded)}, nil
}

// filename returns an upload name for the image's MIME type.
func (i inlineImage) filename() string {
	switch i.MIME {
	case "image/svg+xml":
		return "render.svg"
	case "image/jpeg":
		return "render.jpg"
	case "image/webp":
		return "render.webp"
	default:
		return "render.png"
	}
}

// isPublicURL reports whether ref can be fetched by a third party.
func isPublicURL(ref models.ImageRef) bool {
	u, err := url.Parse(string(ref))
	return err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
