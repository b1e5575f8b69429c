package model

import "strings"

// Analysis is one laboratory analysis in the catalog.
type Analysis struct {
	ID              int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string `json:"name" yaml:"name"`
	Laboratory      string `json:"laboratory" yaml:"laboratory"`
	Sector          string `json:"sector,omitempty" yaml:"sector,omitempty"`
	Form            string `json:"form,omitempty" yaml:"form,omitempty"`
	SampleType      string `json:"sampleType,omitempty" yaml:"sampleType,omitempty"`
	Device          string `json:"device,omitempty" yaml:"device,omitempty"`
	Frequency       string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	TAT             string `json:"tat,omitempty" yaml:"tat,omitempty"`
	Units           string `json:"units,omitempty" yaml:"units,omitempty"`
	ReferenceValues string `json:"referenceValues,omitempty" yaml:"referenceValues,omitempty"`
	Stability       string `json:"stability,omitempty" yaml:"stability,omitempty"`
	InamiCode       string `json:"inamiCode,omitempty" yaml:"inamiCode,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a Analysis) Trimmed() Analysis {
	a.Name = strings.TrimSpace(a.Name)
	a.Laboratory = strings.TrimSpace(a.Laboratory)
	a.Sector = strings.TrimSpace(a.Sector)
	a.Form = strings.TrimSpace(a.Form)
	a.SampleType = strings.TrimSpace(a.SampleType)
	a.Device = strings.TrimSpace(a.Device)
	a.Frequency = strings.TrimSpace(a.Frequency)
	a.TAT = strings.TrimSpace(a.TAT)
	a.Units = strings.TrimSpace(a.Units)
	a.ReferenceValues = strings.TrimSpace(a.ReferenceValues)
	a.Stability = strings.TrimSpace(a.Stability)
	a.InamiCode = strings.TrimSpace(a.InamiCode)
	return a
}

// MissingFields returns the JSON names of required fields that are blank.
func (a Analysis) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.Laboratory) == "" {
		missing = append(missing, "laboratory")
	}
	return missing
}
