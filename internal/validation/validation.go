// Package validation checks untrusted input before any mutation.  Shape
// rules are struct tags run through go-playground/validator; lookups,
// uniqueness and conditional rules are plain code over the store
// interfaces.  Every rejection is a *result.Failure carrying a message key.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/repository"
	"github.com/iliyamo/api-client-manager/internal/result"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Shape runs the struct tags of v and converts the first violation into a
// VALIDATION_ERROR failure.  Keys have the form validation.<tag>.
func Shape(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		args := result.Args{"field": fe.Field()}
		if fe.Param() != "" {
			args["param"] = fe.Param()
		}
		return result.Invalid("validation."+fe.Tag(), args)
	}
	return err
}

// BadPayload is returned when a request body cannot be decoded at all.
func BadPayload() error {
	return result.Invalid("validation.invalidPayload", nil)
}

// Paging is the raw limit/offset pair of a list request.
type Paging struct {
	Limit  string `query:"limit" validate:"omitempty,number"`
	Offset string `query:"offset" validate:"omitempty,number"`
}

// Window resolves the paging pair.  A missing limit becomes the ceiling
// and a larger one is clamped to it; a missing offset becomes zero.
func (p Paging) Window(ceiling int) (model.Window, error) {
	win := model.Window{Limit: ceiling}
	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil {
			return win, result.Invalid("validation.number", result.Args{"field": "limit"})
		}
		if n < 1 {
			return win, result.Invalid("validation.min", result.Args{"field": "limit", "param": "1"})
		}
		if n < ceiling {
			win.Limit = n
		}
	}
	if p.Offset != "" {
		n, err := strconv.Atoi(p.Offset)
		if err != nil || n < 0 {
			return win, result.Invalid("validation.number", result.Args{"field": "offset"})
		}
		win.Offset = n
	}
	return win, nil
}

// ID parses a positive identifier taken from a path or query parameter.
func ID(field, raw string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, result.Invalid("validation.number", result.Args{"field": field})
	}
	if n == 0 {
		return 0, result.Invalid("validation.min", result.Args{"field": field, "param": "1"})
	}
	return n, nil
}

// optionalID is ID for filters: an empty value means no filter.
func optionalID(field, raw string) (*uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	n, err := ID(field, raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalBool(field, raw string) (*bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, result.Invalid("validation.boolean", result.Args{"field": field})
	}
	return &b, nil
}

func optionalString(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// Nullable distinguishes an absent JSON field from an explicit null.
// Set is true when the field appeared; Null is true when it was null.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON is only called for fields present in the document.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// Merge returns the value to store given the current one.
func (n Nullable[T]) Merge(current *T) *T {
	switch {
	case !n.Set:
		return current
	case n.Null:
		return nil
	default:
		v := n.Value
		return &v
	}
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// missing reports whether err is a repository not-found sentinel.
func missing(err error) bool {
	return errors.Is(err, repository.ErrServiceNotFound) ||
		errors.Is(err, repository.ErrClientNotFound) ||
		errors.Is(err, repository.ErrCustomerNotFound) ||
		errors.Is(err, repository.ErrAlertConfigurationNotFound)
}
