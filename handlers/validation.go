package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeAndValidate decodes the body into dest and runs its validate tags.
func decodeAndValidate(r *http.Request, dest any) error {
	if _, err := decodeBody(r, dest); err != nil {
		return err
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *APIError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &APIError{Status: http.StatusBadRequest, Message: "Validation failed", Detail: err.Error()}
	}
	details := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		details = append(details, fieldErr.Field()+" "+validationMessage(fieldErr))
	}
	sort.Strings(details)
	return &APIError{
		Status:  http.StatusBadRequest,
		Message: details[0],
		Detail:  strings.Join(details, "; "),
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
