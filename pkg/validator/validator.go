package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/punjabready/portal-api/pkg/apperror"
)

var youtubePattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)

// IsYouTubeURL reports whether raw points at youtube.com or youtu.be.
func IsYouTubeURL(raw string) bool {
	return youtubePattern.MatchString(strings.TrimSpace(raw))
}

// Handlers bind with gin, so its engine gets the custom tags as soon as
// this package is linked in.
func init() {
	if err := RegisterGin(); err != nil {
		panic(err)
	}
}

// Register installs the custom tags and reports fields by their json name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return v.RegisterValidation("youtube_url", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsYouTubeURL(s)
	})
}

// RegisterGin applies Register to gin's binding engine so ShouldBind*
// reports json field names.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

// Translate turns a binding error into an *apperror.AppError.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return apperror.Validation("Validation failed", Fields(validationErrors)...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperror.BadRequest("Request body is required")
	case errors.As(err, &syntaxErr):
		return apperror.BadRequest("Malformed JSON request body")
	case errors.As(err, &typeErr):
		return apperror.Validation("Validation failed", apperror.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s has an invalid type", typeErr.Field),
		})
	}

	return apperror.New(http.StatusBadRequest, "Invalid request", errors.Join(apperror.ErrBadRequest, err))
}

// Fields converts validation errors to per-field messages.
func Fields(errs validator.ValidationErrors) []apperror.FieldError {
	fields := make([]apperror.FieldError, 0, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe)
		fields = append(fields, apperror.FieldError{
			Field:   field,
			Message: getFieldErrorMessage(field, fe),
		})
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getFieldErrorMessage(field string, fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s cannot be more than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	case "latitude", "longitude":
		return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "youtube_url":
		return "Please provide a valid YouTube URL"
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	case "dive":
		return fmt.Sprintf("%s contains an invalid value", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
