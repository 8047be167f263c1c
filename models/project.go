package models

import (
	"encoding/json"
	"strings"
)

// Public field names of a project. These never change regardless of how the
// storage layer cases its column names.
const (
	FieldTitle              = "title"
	FieldCategory           = "category"
	FieldImage              = "image"
	FieldAlt                = "alt"
	FieldDashboardURL       = "dashboardUrl"
	FieldCodeURL            = "codeUrl"
	FieldDescription        = "description"
	FieldTech               = "tech"
	FieldFeatured           = "featured"
	FieldClicksDashboardURL = "clicks_dashboardUrl"
	FieldClicksCodeURL      = "clicks_codeUrl"
)

var publicFields = []string{
	FieldTitle,
	FieldCategory,
	FieldImage,
	FieldAlt,
	FieldDashboardURL,
	FieldCodeURL,
	FieldDescription,
	FieldTech,
	FieldFeatured,
	FieldClicksDashboardURL,
	FieldClicksCodeURL,
}

var fieldsByLowerName = func() map[string]string {
	m := make(map[string]string, len(publicFields))
	for _, f := range publicFields {
		m[strings.ToLower(f)] = f
	}
	return m
}()

// CanonicalField maps a field or column name in any casing to its public name.
func CanonicalField(name string) (string, bool) {
	f, ok := fieldsByLowerName[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Project represents a portfolio item as exposed to clients
type Project struct {
	Title              string   `json:"title" mapstructure:"title"`
	Category           *string  `json:"category" mapstructure:"category" validate:"omitempty,max=200"`
	Image              *string  `json:"image" mapstructure:"image" validate:"omitempty,max=2048"`
	Alt                *string  `json:"alt" mapstructure:"alt" validate:"omitempty,max=1000"`
	DashboardURL       *string  `json:"dashboardUrl" mapstructure:"dashboardUrl" validate:"omitempty,max=2048"`
	CodeURL            *string  `json:"codeUrl" mapstructure:"codeUrl" validate:"omitempty,max=2048"`
	Description        *string  `json:"description" mapstructure:"description" validate:"omitempty,max=20000"`
	Tech               TechList `json:"tech" mapstructure:"tech" validate:"max=100,dive,max=200"`
	Featured           bool     `json:"featured" mapstructure:"featured"`
	ClicksDashboardURL int64    `json:"clicks_dashboardUrl" mapstructure:"-"`
	ClicksCodeURL      int64    `json:"clicks_codeUrl" mapstructure:"-"`
}

// TechList is the ordered list of technologies of a project. It always
// serializes as an array, never as null.
type TechList []string

func (t TechList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// ClickTarget names which outbound link of a project was followed.
type ClickTarget string

const (
	ClickDashboard ClickTarget = "dashboard"
	ClickCode      ClickTarget = "code"
)

// ParseClickTarget accepts "dashboard" or "code" in any casing.
func ParseClickTarget(s string) (ClickTarget, bool) {
	switch ClickTarget(strings.ToLower(strings.TrimSpace(s))) {
	case ClickDashboard:
		return ClickDashboard, true
	case ClickCode:
		return ClickCode, true
	}
	return "", false
}
