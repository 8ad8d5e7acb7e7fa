// Package validate provides struct-tag validation for request DTOs.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	url                 valid URL (http/https)
//	objectid            valid 24-char hex MongoDB ObjectID
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gte=N               number >= N
//	lte=N               number <= N
//
// Example:
//
//	type AddItemInput struct {
//	    ProductID string `json:"productId" validate:"required,objectid"`
//	    Quantity  int    `json:"quantity"  validate:"required,gte=1"`
//	}
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonName(field)
		if msg := checkField(value, tag); msg != "" {
			errs[name] = msg
		}
	}

	return errs
}

// HasErrors reports whether a Struct result contains any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}

func checkField(value reflect.Value, tag string) string {
	rules := strings.Split(tag, ",")
	empty := isEmpty(value)

	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		param := ""
		if idx := strings.IndexByte(rule, '='); idx >= 0 {
			param = rule[idx+1:]
			rule = rule[:idx]
		}

		switch rule {
		case "required":
			if empty {
				return "is required"
			}
		case "nullable":
			if empty {
				return ""
			}
		case "email":
			if !empty {
				if _, err := mail.ParseAddress(value.String()); err != nil {
					return "must be a valid email address"
				}
			}
		case "url":
			if !empty {
				u, err := url.Parse(value.String())
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
					return "must be a valid URL"
				}
			}
		case "objectid":
			if !empty && !objectIDPattern.MatchString(value.String()) {
				return "must be a valid object id"
			}
		case "min":
			if msg := checkBound(value, param, false); msg != "" {
				return msg
			}
		case "max", "lte":
			if msg := checkBound(value, param, true); msg != "" {
				return msg
			}
		case "gte":
			if msg := checkBound(value, param, false); msg != "" {
				return msg
			}
		}
	}

	return ""
}

// checkBound enforces min/gte (upper=false) or max/lte (upper=true).
func checkBound(value reflect.Value, param string, upper bool) string {
	limit, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return ""
	}

	var n float64
	switch value.Kind() {
	case reflect.String:
		n = float64(len(value.String()))
		if upper && n > limit {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		if !upper && n < limit {
			return fmt.Sprintf("must be at least %s characters", param)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = float64(value.Int())
		if upper && n > limit {
			return fmt.Sprintf("must be at most %s", param)
		}
		if !upper && n < limit {
			return fmt.Sprintf("must be at least %s", param)
		}
	case reflect.Float32, reflect.Float64:
		n = value.Float()
		if upper && n > limit {
			return fmt.Sprintf("must be at most %s", param)
		}
		if !upper && n < limit {
			return fmt.Sprintf("must be at least %s", param)
		}
	}

	return ""
}

func isEmpty(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.String:
		return strings.TrimSpace(value.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return value.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return value.IsNil()
	default:
		return value.IsZero()
	}
}
