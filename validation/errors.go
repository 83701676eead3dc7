// Package validation turns request input into a single field -> message map, all or nothing.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Errors maps a request field to its first failing message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, k := range e.fields() {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages lists the messages ordered by field name.
func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, k := range e.fields() {
		out = append(out, e[k])
	}
	return out
}

func (e Errors) fields() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Add records msg for field unless the field already failed.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Merge copies other into e, keeping messages already present.
func (e Errors) Merge(other Errors) {
	for k, v := range other {
		e.Add(k, v)
	}
}

// Err returns e as an error, or nil when nothing failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Messages overrides default texts. Keys are "field.rule", e.g. "name.required".
type Messages map[string]string

var setupOnce sync.Once

// Sanitizer is implemented by request structs that clean their own input.
// Sanitize runs after decoding and before the binding rules are checked.
type Sanitizer interface {
	Sanitize()
}

type sanitizingValidator struct {
	binding.StructValidator
}

func (v sanitizingValidator) ValidateStruct(obj any) error {
	if s, ok := obj.(Sanitizer); ok {
		s.Sanitize()
	}
	return v.StructValidator.ValidateStruct(obj)
}

// Setup makes binding errors report form/json field names instead of Go struct
// names, and sanitizes requests implementing Sanitizer before validating them.
func Setup() {
	setupOnce.Do(func() {
		binding.Validator = sanitizingValidator{binding.Validator}
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
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
	})
}

// FromBinding converts an error returned by gin's ShouldBind* into Errors.
func FromBinding(err error, msgs Messages) Errors {
	out := Errors{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			if m, ok := msgs[field+"."+fe.Tag()]; ok {
				out.Add(field, m)
				continue
			}
			out.Add(field, defaultMessage(fe))
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out.Add(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field)))
		return out
	}
	out.Add("request", "The request body could not be read.")
	return out
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func defaultMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	isText := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "numeric", "number":
		return fmt.Sprintf("The %s must be a number.", name)
	case "min", "gte":
		switch {
		case isText:
			return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
		case isList:
			return fmt.Sprintf("The %s must have at least %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "max", "lte":
		switch {
		case isText:
			return fmt.Sprintf("The %s must not be greater than %s characters.", name, fe.Param())
		case isList:
			return fmt.Sprintf("The %s must not have more than %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must not be greater than %s.", name, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}
