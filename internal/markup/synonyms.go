package markup

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Field keys the synonym table resolves to.
const (
	FieldName    = "name"
	FieldWebsite = "website"
	FieldPhone   = "phone"
	FieldCountry = "country"
	FieldCity    = "city"
)

// defaultSynonyms maps folded row labels to fact fields. Directory profile
// pages are inconsistent about labeling, so each field accepts the variants
// observed in the wild.
var defaultSynonyms = map[string]string{
	"name":         FieldName,
	"company":      FieldName,
	"company name": FieldName,

	"website":  FieldWebsite,
	"homepage": FieldWebsite,
	"web":      FieldWebsite,
	"url":      FieldWebsite,

	"phone":     FieldPhone,
	"telephone": FieldPhone,
	"tel":       FieldPhone,
	"phone no":  FieldPhone,

	"country": FieldCountry,

	"city":     FieldCity,
	"town":     FieldCity,
	"location": FieldCity,
}

// LoadSynonyms reads extra label synonyms from a YAML file shaped as
//
//	phone:
//	  - "direct line"
//	city:
//	  - "hq city"
//
// Unknown field keys are rejected so typos surface at startup rather than
// as silently dead labels.
func LoadSynonyms(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "markup: read synonyms file")
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "markup: parse synonyms file")
	}

	for field := range overrides {
		switch field {
		case FieldName, FieldWebsite, FieldPhone, FieldCountry, FieldCity:
		default:
			return nil, eris.Errorf("markup: unknown field %q in synonyms file", field)
		}
	}
	return overrides, nil
}
