package prompt

import (
	"strings"
	"testing"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

func TestBuildTextPromptEmptyProject(t *testing.T) {
	tests := []struct {
		locale       models.Locale
		placeholders []string
	}{
		{models.LocaleEN, []string{"Type: property", "Bedrooms: not specified", "Area: not specified", "Location: prestigious Dubai area", "Price: on request", "Features: not specified"}},
		{models.LocaleRU, []string{"Тип: недвижимость", "Спальни: не указано", "Локация: престижном районе Дубая", "Цена: по запросу"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.locale), func(t *testing.T) {
			spec := BuildTextPrompt(models.Project{}, tt.locale)

			if spec.Modality != ModalityText {
				t.Errorf("Modality = %q, want text", spec.Modality)
			}
			if strings.TrimSpace(spec.User) == "" || strings.TrimSpace(spec.System) == "" {
				t.Fatal("prompt should not be empty")
			}
			for _, want := range tt.placeholders {
				if !strings.Contains(spec.User, want) {
					t.Errorf("prompt missing %q:\n%s", want, spec.User)
				}
			}
			if strings.Contains(spec.User, "%!") {
				t.Errorf("prompt has formatting artifacts:\n%s", spec.User)
			}
		})
	}
}

func TestBuildTextPromptFilledProject(t *testing.T) {
	p := models.Project{Attributes: models.Attributes{
		PropertyType:      models.PropertyVilla,
		Bedrooms:          "4",
		Bathrooms:         "5",
		Size:              "420",
		SizeUnit:          models.SizeSqm,
		Location:          "Palm Jumeirah",
		Price:             "12000000",
		Currency:          "AED",
		CustomDescription: "private beach",
	}}

	spec := BuildTextPrompt(p, models.LocaleEN)

	for _, want := range []string{"Type: elegant villa", "Bedrooms: 4", "Bathrooms: 5", "Area: 420 sq m", "Location: Palm Jumeirah", "Price: 12000000 AED", "Features: private beach"} {
		if !strings.Contains(spec.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLocationFallsBackToTower(t *testing.T) {
	a := models.Attributes{Tower: "Burj Vista"}
	if got := Location(a, models.LocaleEN); got != "Burj Vista" {
		t.Errorf("Location() = %q, want tower", got)
	}
}

func TestBuildImagePrompt(t *testing.T) {
	p := models.Project{Attributes: models.Attributes{FloorPlan: "https://cdn.example.com/plan.png"}}

	spec := BuildImagePrompt(p, models.StyleArabic)
	if spec.Modality != ModalityImage {
		t.Errorf("Modality = %q, want image", spec.Modality)
	}
	if !strings.Contains(spec.User, "arabic style") || !strings.Contains(spec.User, StyleDescriptor(models.StyleArabic)) {
		t.Errorf("prompt missing style:\n%s", spec.User)
	}
	if spec.ImageURL != p.Attributes.FloorPlan {
		t.Errorf("ImageURL = %q, want floor plan", spec.ImageURL)
	}
}

func TestBuildImagePromptUnknownStyleUsesModern(t *testing.T) {
	spec := BuildImagePrompt(models.Project{}, "gothic")
	if !strings.Contains(spec.User, "modern style") || !strings.Contains(spec.User, StyleDescriptor(models.StyleModern)) {
		t.Errorf("unknown style should use modern descriptor:\n%s", spec.User)
	}
}

func TestBuildRewritePrompt(t *testing.T) {
	spec := BuildRewritePrompt("Old text.", RewriteOptions{Tone: models.ToneInvestment, Focus: "rental yield"}, models.LocaleEN)

	if !strings.Contains(spec.User, "investment appeal") {
		t.Errorf("prompt missing tone:\n%s", spec.User)
	}
	if !strings.Contains(spec.User, "Focus on: rental yield") {
		t.Errorf("prompt missing focus:\n%s", spec.User)
	}
	if !strings.HasSuffix(spec.User, "Old text.") {
		t.Errorf("prompt should end with the original text:\n%s", spec.User)
	}

	noFocus := BuildRewritePrompt("x", RewriteOptions{}, models.LocaleEN)
	if strings.Contains(noFocus.User, "Focus on") {
		t.Error("empty focus should be omitted")
	}
}
