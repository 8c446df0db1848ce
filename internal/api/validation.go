package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

const (
	maxFieldLength       = 120
	maxDescriptionLength = 2000
	maxFocusLength       = 300
)

var propertyTypes = map[models.PropertyType]bool{
	models.PropertyApartment: true,
	models.PropertyVilla:     true,
	models.PropertyPenthouse: true,
	models.PropertyStudio:    true,
	models.PropertyTownhouse: true,
}

// normalizeAttributes trims every field and validates the ones with a
// fixed shape. Empty fields are allowed.
func normalizeAttributes(a *models.Attributes) error {
	a.PropertyType = models.PropertyType(strings.ToLower(strings.TrimSpace(string(a.PropertyType))))
	a.Bedrooms = strings.TrimSpace(a.Bedrooms)
	a.Bathrooms = strings.TrimSpace(a.Bathrooms)
	a.Size = strings.TrimSpace(a.Size)
	a.Location = strings.TrimSpace(a.Location)
	a.Tower = strings.TrimSpace(a.Tower)
	a.Price = strings.TrimSpace(a.Price)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	a.CustomDescription = strings.TrimSpace(a.CustomDescription)
	a.FloorPlan = models.ImageRef(strings.TrimSpace(string(a.FloorPlan)))
	if a.SizeUnit != "" {
		a.SizeUnit = models.ParseSizeUnit(string(a.SizeUnit))
	}

	if a.PropertyType != "" && !propertyTypes[a.PropertyType] {
		return fmt.Errorf("unknown property type %q", a.PropertyType)
	}
	for name, v := range map[string]string{"bedrooms": a.Bedrooms, "bathrooms": a.Bathrooms} {
		if v == "" || strings.EqualFold(v, "studio") {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 || n > 50 {
			return fmt.Errorf("%s must be a number between 0 and 50", name)
		}
	}
	for name, v := range map[string]string{"size": a.Size, "price": a.Price} {
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err != nil || f < 0 {
			return fmt.Errorf("%s must be a positive number", name)
		}
	}
	if a.Currency != "" && len(a.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	for name, v := range map[string]string{"location": a.Location, "tower": a.Tower} {
		if len(v) > maxFieldLength {
			return fmt.Errorf("%s must be %d characters or less", name, maxFieldLength)
		}
	}
	if len(a.CustomDescription) > maxDescriptionLength {
		return fmt.Errorf("custom description must be %d characters or less", maxDescriptionLength)
	}
	if fp := string(a.FloorPlan); fp != "" &&
		!strings.HasPrefix(fp, "https://") && !strings.HasPrefix(fp, "http://") && !strings.HasPrefix(fp, "data:image/") {
		return errors.New("floor plan must be an http(s) URL or an image data URL")
	}
	return nil
}

func validateFocus(focus string) error {
	if len(focus) > maxFocusLength {
		return fmt.Errorf("focus must be %d characters or less", maxFocusLength)
	}
	return nil
}
