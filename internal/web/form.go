// AngelaMos | 2026
// form.go

package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

const maxFormBytes = 1 << 20

var (
	decoder  = form.NewDecoder()
	validate = newValidator()

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.]*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	//nolint:errcheck // tag name and func are static
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// FieldErrors maps a form field name to the first message raised for it.
type FieldErrors map[string]string

func (fe FieldErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

// Bind decodes the posted form into dst and validates it. A non-nil error
// means the body itself was unusable; field problems come back in
// FieldErrors.
func Bind(w http.ResponseWriter, r *http.Request, dst any) (FieldErrors, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}

	trimStrings(dst)

	fieldErrs := FieldErrors{}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate form: %w", err)
		}
		for _, fe := range verrs {
			fieldErrs.Add(fe.Field(), messageFor(fe))
		}
	}

	return fieldErrs, nil
}

// trimStrings strips surrounding whitespace from every string field not
// tagged as a password.
func trimStrings(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := range t.NumField() {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() {
			continue
		}
		if strings.Contains(strings.ToLower(t.Field(i).Name), "password") {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field must be at most %s characters long.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "eqfield":
		return "Passwords must match."
	case "username":
		return "Usernames must have only letters, numbers, dots or underscores"
	case "oneof":
		return "Not a valid choice."
	default:
		return "Invalid value."
	}
}
