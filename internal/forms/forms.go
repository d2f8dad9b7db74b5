// Package forms implements the input validators behind the web surface.
//
// A form binds raw request fields plus an acting user (and, for tickets, a
// project context), validates them, and on Save stamps ownership metadata
// before persisting. Validation failures come back as field-keyed Errors so
// handlers can re-render the submitted form; they never reach storage.
package forms

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps field names to validation messages.
type Errors map[string]string

// Has reports whether any field failed validation.
func (e Errors) Has() bool { return len(e) > 0 }

// validate is the shared validator instance for struct tag checks.
var validate = validator.New()

// checkStruct runs tag validation and folds failures into errs, keyed by the
// lowercased struct field name.
func checkStruct(form any, errs Errors) {
	err := validate.Struct(form)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = "invalid input"
		return
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = "this field is required"
		case "max":
			errs[field] = "must be " + fe.Param() + " characters or less"
		default:
			errs[field] = "invalid value"
		}
	}
}
