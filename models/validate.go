package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/rpupo63/portfolio-projects-backend/errs"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report public JSON names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// MaxTitleLength bounds the title of a newly added project. Rows stored by
// earlier deployments may carry longer titles and stay addressable.
const MaxTitleLength = 300

// Validate checks a candidate project before it is added. A blank title is
// reported as "title required"; every other failure names the offending field.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errs.NewMissingRequiredFieldError(FieldTitle)
	}
	if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		return errs.NewInvalidFieldError(FieldTitle, fmt.Sprintf("must not exceed %d characters", MaxTitleLength))
	}
	return p.ValidateContent()
}

// ValidateContent checks the fields an update may change. The title is not
// inspected.
func (p Project) ValidateContent() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errs.NewMalformedPayloadError("project", err)
	}

	fe := validationErrors[0]
	field := strings.SplitN(fe.Namespace(), ".", 2)
	name := fe.Field()
	if len(field) == 2 {
		name = field[1]
	}

	switch fe.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(name)
	case "max":
		if fe.Kind() == reflect.Slice {
			return errs.NewInvalidFieldError(name, fmt.Sprintf("must not have more than %s entries", fe.Param()))
		}
		return errs.NewInvalidFieldError(name, fmt.Sprintf("must not exceed %s characters", fe.Param()))
	default:
		return errs.NewInvalidFieldError(name, fe.Tag())
	}
}
