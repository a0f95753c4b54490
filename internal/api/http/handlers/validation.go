package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizer is implemented by payloads that fold equivalent inputs before validation.
type normalizer interface {
	Normalize()
}

// bindBody parses the JSON body into out and runs its validate tags.
func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("Invalid request payload", nil)
	}
	if n, ok := out.(normalizer); ok {
		n.Normalize()
	}
	return validateStruct(out)
}

func validateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("Invalid request payload", nil)
	}

	details := make(map[string]any, len(verrs))
	var first string
	for _, fe := range verrs {
		msg := validationMessage(fieldLabel(payload, fe), fe)
		if first == "" {
			first = msg
		}
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = msg
		}
	}
	return apperrors.NewValidationError(first, details)
}

// requireUUIDParam returns the named path parameter when it is a UUID.
func requireUUIDParam(c *fiber.Ctx, name, label string) (string, error) {
	value := c.Params(name)
	if _, err := uuid.Parse(value); err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s must be a valid UUID", label), map[string]any{name: value})
	}
	return value, nil
}

func validationMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please provide a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be either %s", label, strings.Join(strings.Fields(fe.Param()), " or "))
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldLabel prefers an explicit label tag, falling back to the title-cased json name.
func fieldLabel(payload any, fe validator.FieldError) string {
	t := reflect.TypeOf(payload)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if field, ok := t.FieldByName(fe.StructField()); ok {
			if label := field.Tag.Get("label"); label != "" {
				return label
			}
		}
	}
	return cases.Title(language.English).String(strings.ReplaceAll(fe.Field(), "_", " "))
}
