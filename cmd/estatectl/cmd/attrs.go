package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// listingFlags describe a project on the command line, or point at a stored
// one with --id.
type listingFlags struct {
	id     string
	attrs  models.Attributes
	ptype  string
	unit   string
	plan   string
	style  string
	locale string
}

func (f *listingFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.id, "id", "", "use a stored project (see --db)")
	fs.StringVar(&f.ptype, "type", "", "property type (apartment, villa, penthouse, studio, townhouse)")
	fs.StringVar(&f.attrs.Bedrooms, "bedrooms", "", "number of bedrooms")
	fs.StringVar(&f.attrs.Bathrooms, "bathrooms", "", "number of bathrooms")
	fs.StringVar(&f.attrs.Size, "size", "", "area")
	fs.StringVar(&f.unit, "unit", "sqft", "area unit (sqft, sqm)")
	fs.StringVar(&f.attrs.Location, "location", "", "location")
	fs.StringVar(&f.attrs.Tower, "tower", "", "tower or building")
	fs.StringVar(&f.attrs.Price, "price", "", "price")
	fs.StringVar(&f.attrs.Currency, "currency", "AED", "currency code")
	fs.StringVar(&f.attrs.CustomDescription, "features", "", "free-form features")
	fs.StringVar(&f.plan, "floor-plan", "", "floor plan URL")
	fs.StringVar(&f.style, "style", "", "render style (modern, luxury, minimalist, arabic, scandinavian)")
	fs.StringVar(&f.locale, "locale", "", "description language (ru, en)")
	fs.StringVar(&projectDBPath, "db", defaultDBPath, "database path")
}

// project returns the stored project for --id, or one built from flags.
// Explicit --style and --locale override the stored values.
func (f *listingFlags) project(ctx context.Context) (models.Project, error) {
	var p models.Project
	if f.id != "" {
		store, err := openProjectDB()
		if err != nil {
			return p, err
		}
		defer store.Close()

		stored, err := store.Projects().GetByID(ctx, f.id)
		if err != nil {
			return p, fmt.Errorf("get project: %w", err)
		}
		if stored == nil {
			return p, fmt.Errorf("project not found: %s", f.id)
		}
		p = stored.Clone()
	} else {
		attrs := f.attrs
		attrs.PropertyType = models.PropertyType(f.ptype)
		attrs.SizeUnit = models.ParseSizeUnit(f.unit)
		attrs.FloorPlan = models.ImageRef(f.plan)
		p = *models.NewProject("preview", attrs, models.Style(f.style), models.Locale(f.locale))
	}

	if f.style != "" {
		p.Style = models.ParseStyle(f.style)
	}
	if f.locale != "" {
		p.Locale = models.ParseLocale(f.locale)
	}
	return p, nil
}
