package blog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s is lowercase alphanumeric words joined by single hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ListRequest is the payload of getAllBlogs. Nil fields take their defaults.
type ListRequest struct {
	Page          *int  `json:"page" validate:"omitnil,min=1"`
	Limit         *int  `json:"limit" validate:"omitnil,min=1"`
	OnlyPublished *bool `json:"onlyPublished"`
}

// SlugRequest is the payload of getBlogBySlug.
type SlugRequest struct {
	Slug string `json:"slug"`
}

// CreateRequest is the payload of createBlog.
type CreateRequest struct {
	Title     string  `json:"title" validate:"required,min=1,max=255"`
	Slug      string  `json:"slug" validate:"required,min=1,max=255,slug"`
	Excerpt   *string `json:"excerpt"`
	Content   string  `json:"content" validate:"required,min=1"`
	Published *bool   `json:"published"`
}

// UpdateRequest is the payload of updateBlog. Only non-nil fields are applied.
type UpdateRequest struct {
	ID        *int64  `json:"id" validate:"required"`
	Title     *string `json:"title" validate:"omitnil,min=1,max=255"`
	Slug      *string `json:"slug" validate:"omitnil,min=1,max=255,slug"`
	Excerpt   *string `json:"excerpt"`
	Content   *string `json:"content" validate:"omitnil,min=1"`
	Published *bool   `json:"published"`
}

func (r UpdateRequest) patch() PostPatch {
	return PostPatch{
		Title:     r.Title,
		Slug:      r.Slug,
		Excerpt:   r.Excerpt,
		Content:   r.Content,
		Published: r.Published,
	}
}

// DeleteRequest is the payload of deleteBlog.
type DeleteRequest struct {
	ID *int64 `json:"id" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidSlug(fl.Field().String())
	})
	return v
}

// Validate checks req against its struct tags and returns a *ValidationError
// listing every failing field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "slug":
		return "must be lowercase letters and digits separated by single hyphens"
	default:
		return "is invalid"
	}
}

// Decode reads a JSON payload from r into dst. An empty body leaves dst at
// its zero value. Syntax and type errors, and anything after the first JSON
// value, come back as *ValidationError.
func Decode(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		var extra json.RawMessage
		if err := dec.Decode(&extra); errors.Is(err, io.EOF) {
			return nil
		}
		return NewValidationError("body", "must be a single JSON object")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return NewValidationError(typeErr.Field, "must be a "+jsonTypeName(typeErr.Type))
	}
	return NewValidationError("body", "must be a valid JSON object")
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "whole number"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	default:
		return "valid value"
	}
}
