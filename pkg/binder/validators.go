package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/locallibrary/catalog/pkg/models"
)

var dateRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The empty string is allowed so the field can be cleared. Add `ne=`
// to the validate tag when the value is required.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// statusValidator accepts a known book instance status code, or the empty
// string.
func statusValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidBookInstanceStatus(value)
}
