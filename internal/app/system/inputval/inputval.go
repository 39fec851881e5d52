// Package inputval validates decoded JSON request bodies using
// waffle/pantry/validate.
//
// Define an input struct with validate tags, decode the body into it and
// call Validate:
//
//	type createIssueInput struct {
//	    Title  string `json:"title" validate:"required,max=255" label:"Title"`
//	    Status string `json:"status" validate:"issuestatus" label:"Status"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError is a validation error for one field. Field is the JSON name.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// Fields maps each failing JSON field to its first message, the shape
// jsonutil.ValidationError writes.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New()

		// issuestatus: empty (use the default) or open|in_progress|resolved
		customValidator.RegisterRuleFunc("issuestatus", func(value any) bool {
			s, ok := value.(string)
			return ok && (s == "" || models.IsValidIssueStatus(s))
		}, "issuestatus")

		customValidator.RegisterRuleFunc("role", func(value any) bool {
			s, ok := value.(string)
			return ok && models.IsValidRole(s)
		}, "role")

		customValidator.RegisterRuleFunc("objectid", func(value any) bool {
			s, ok := value.(string)
			return ok && IsValidObjectID(s)
		}, "objectid")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
//
// Rules from pantry/validate: required, oneof, min, max. Rules registered
// here: issuestatus, role, objectid.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param),
			})
		}
	}
	return result
}

// getFieldLabels maps JSON field names to their "label" tag.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" && parts[0] != "-" {
				name = parts[0]
			}
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[name] = label
		}
	}
	return labels
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "issuestatus":
		return label + " must be one of: open, in_progress, resolved."
	case "role":
		return label + " must be one of: " + strings.Join(models.AllRoles(), ", ") + "."
	case "objectid":
		return label + " is not a valid ID."
	default:
		return label + " is invalid."
	}
}

// IsValidObjectID checks if s is a MongoDB ObjectID hex string.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
