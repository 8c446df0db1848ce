package prompt

import "github.com/dumitrugolubov/dubai-estate-ai/internal/models"

// styleDescriptors maps each render style to its image instruction.
var styleDescriptors = map[models.Style]string{
	models.StyleModern:       "contemporary interior, clean lines, neutral colors, floor-to-ceiling windows, modern furniture, Dubai luxury apartment style",
	models.StyleLuxury:       "ultra-luxurious Dubai interior, gold accents, marble floors, crystal chandeliers, designer furniture, penthouse style",
	models.StyleMinimalist:   "minimalist Dubai apartment, white and gray tones, simple furniture, uncluttered space, clean design",
	models.StyleArabic:       "Arabic luxury villa interior, traditional Arabic patterns, rich colors, Arabic art, luxurious fabrics, Middle Eastern design",
	models.StyleScandinavian: "Scandinavian Dubai apartment, light wood, cozy textiles, natural light, functional design, warm atmosphere",
}

// StyleDescriptor returns the image instruction for a style.
// Unknown styles use the modern descriptor.
func StyleDescriptor(style models.Style) string {
	if d, ok := styleDescriptors[style]; ok {
		return d
	}
	return styleDescriptors[models.DefaultStyle]
}

// phrases holds the locale-specific wording used in text prompts.
type phrases struct {
	system          string
	header          string
	footer          string
	typeLabel       string
	bedroomsLabel   string
	bathroomsLabel  string
	areaLabel       string
	locationLabel   string
	priceLabel      string
	featuresLabel   string
	notSpecified    string
	onRequest       string
	genericProperty string
	genericLocation string
	sqft            string
	sqm             string
	rewrite         string
	focus           string
	propertyTypes   map[models.PropertyType]string
	tones           map[models.Tone]string
}

var localePhrases = map[models.Locale]phrases{
	models.LocaleEN: {
		system:          "You are a professional real estate agent specializing in luxury properties in Dubai. Your descriptions sell the dream and lifestyle.",
		header:          "Write a selling property description:",
		footer:          "Write 2-3 paragraphs that sell this property. Use emotional words, highlight Dubai advantages. No lists - prose only.",
		typeLabel:       "Type",
		bedroomsLabel:   "Bedrooms",
		bathroomsLabel:  "Bathrooms",
		areaLabel:       "Area",
		locationLabel:   "Location",
		priceLabel:      "Price",
		featuresLabel:   "Features",
		notSpecified:    "not specified",
		onRequest:       "on request",
		genericProperty: "property",
		genericLocation: "prestigious Dubai area",
		sqft:            "sq ft",
		sqm:             "sq m",
		rewrite:         "Rewrite the following description in %s tone.",
		focus:           "Focus on: %s",
		propertyTypes: map[models.PropertyType]string{
			models.PropertyApartment: "luxury apartment",
			models.PropertyVilla:     "elegant villa",
			models.PropertyPenthouse: "impressive penthouse",
			models.PropertyStudio:    "modern studio",
			models.PropertyTownhouse: "stylish townhouse",
		},
		tones: map[models.Tone]string{
			models.ToneDefault:    "professional and persuasive",
			models.ToneEmotional:  "emotional, evoking desire to live here",
			models.ToneInvestment: "focusing on investment appeal",
			models.ToneFamily:     "family-oriented, highlighting convenience for children",
		},
	},
	models.LocaleRU: {
		system:          "Ты - профессиональный риэлтор, специализирующийся на элитной недвижимости в Дубае. Твои описания продают мечту и образ жизни.",
		header:          "Напиши продающее описание недвижимости:",
		footer:          "Напиши 2-3 абзаца текста, который продает эту недвижимость. Используй эмоциональные слова, подчеркни преимущества Дубая. Без списков - только прозу.",
		typeLabel:       "Тип",
		bedroomsLabel:   "Спальни",
		bathroomsLabel:  "Санузлы",
		areaLabel:       "Площадь",
		locationLabel:   "Локация",
		priceLabel:      "Цена",
		featuresLabel:   "Особенности",
		notSpecified:    "не указано",
		onRequest:       "по запросу",
		genericProperty: "недвижимость",
		genericLocation: "престижном районе Дубая",
		sqft:            "кв. футов",
		sqm:             "кв. метров",
		rewrite:         "Перепиши следующее описание в стиле: %s.",
		focus:           "Сделай акцент на: %s",
		propertyTypes: map[models.PropertyType]string{
			models.PropertyApartment: "роскошную квартиру",
			models.PropertyVilla:     "элегантную виллу",
			models.PropertyPenthouse: "впечатляющий пентхаус",
			models.PropertyStudio:    "современную студию",
			models.PropertyTownhouse: "стильный таунхаус",
		},
		tones: map[models.Tone]string{
			models.ToneDefault:    "профессиональный и убедительный",
			models.ToneEmotional:  "эмоциональный, вызывающий желание жить здесь",
			models.ToneInvestment: "с акцентом на инвестиционную привлекательность",
			models.ToneFamily:     "семейный, подчеркивающий удобство для детей",
		},
	},
}

func phrasesFor(locale models.Locale) phrases {
	if p, ok := localePhrases[locale]; ok {
		return p
	}
	return localePhrases[models.DefaultLocale]
}
