package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// CoerceTech turns whatever the client or the storage layer handed us into a
// list of strings. Absent or malformed data yields an empty list.
func CoerceTech(v any) TechList {
	switch t := v.(type) {
	case nil:
		return TechList{}
	case TechList:
		return append(TechList{}, t...)
	case []string:
		return append(TechList{}, t...)
	case []any:
		out := make(TechList, 0, len(t))
		for _, item := range t {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case float64, int, int64, bool:
				out = append(out, fmt.Sprint(s))
			}
		}
		return out
	case datatypes.JSON:
		return techFromText(string(t))
	case json.RawMessage:
		return techFromText(string(t))
	case []byte:
		return techFromText(string(t))
	case string:
		return techFromText(t)
	case *string:
		if t == nil {
			return TechList{}
		}
		return techFromText(*t)
	}
	return TechList{}
}

func techFromText(s string) TechList {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return TechList{}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`) {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return TechList{}
		}
		if str, ok := decoded.(string); ok {
			return techFromText(str)
		}
		return CoerceTech(decoded)
	}
	if strings.HasPrefix(s, "{") {
		return TechList{}
	}

	// Comma separated form input, e.g. "Go, SQL"
	out := TechList{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// JSON encodes the list for the jsonb tech column.
func (t TechList) JSON() datatypes.JSON {
	if t == nil {
		t = TechList{}
	}
	b, _ := json.Marshal([]string(t))
	return datatypes.JSON(b)
}

var techListType = reflect.TypeOf(TechList{})

// coercionHook lets mapstructure accept the loose shapes produced by form and
// raw-byte payloads.
func coercionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to == techListType {
		return CoerceTech(data), nil
	}
	if to.Kind() == reflect.Bool {
		if s, ok := data.(string); ok {
			return parseFlag(s), nil
		}
	}
	if to.Kind() == reflect.String {
		switch list := data.(type) {
		case []any:
			if len(list) > 0 {
				return fmt.Sprint(list[0]), nil
			}
		case []string:
			if len(list) > 0 {
				return list[0], nil
			}
		}
	}
	return data, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "on", "yes", "y":
		return true
	}
	return false
}

// ProjectFromRecord decodes a canonical record into a Project. Unknown keys are
// ignored and click counters are never taken from client input.
func ProjectFromRecord(record map[string]any) (Project, error) {
	var p Project
	if len(record) == 0 {
		p.Tech = TechList{}
		return p, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       coercionHook,
		WeaklyTypedInput: true,
		Result:           &p,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Project{}, err
	}
	if err := decoder.Decode(record); err != nil {
		return Project{}, errs.NewMalformedPayloadError("project", err)
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Tech == nil {
		p.Tech = TechList{}
	}
	return p, nil
}

// ProjectFromRow builds a Project from a storage row whose keys were already
// canonicalized. Counters default to 0 and tech to an empty list.
func ProjectFromRow(row map[string]any) Project {
	return Project{
		Title:              derefString(asString(row[FieldTitle])),
		Category:           asString(row[FieldCategory]),
		Image:              asString(row[FieldImage]),
		Alt:                asString(row[FieldAlt]),
		DashboardURL:       asString(row[FieldDashboardURL]),
		CodeURL:            asString(row[FieldCodeURL]),
		Description:        asString(row[FieldDescription]),
		Tech:               CoerceTech(row[FieldTech]),
		Featured:           asBool(row[FieldFeatured]),
		ClicksDashboardURL: asInt64(row[FieldClicksDashboardURL]),
		ClicksCodeURL:      asInt64(row[FieldClicksCodeURL]),
	}
}

// CanonicalizeRow re-keys a storage row by public field name. Columns that do
// not belong to the public schema are dropped.
func CanonicalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for column, value := range row {
		if field, ok := CanonicalField(column); ok {
			out[field] = value
		}
	}
	return out
}

func asString(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case *string:
		return t
	case []byte:
		s := string(t)
		return &s
	}
	s := fmt.Sprint(v)
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	case string:
		return parseFlag(t)
	case []byte:
		return parseFlag(string(t))
	}
	return false
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		return n
	}
	return 0
}
