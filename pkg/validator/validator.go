package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidateStruct validates a struct based on validate tags.
// Supported rules are required, max=N (runes for strings, length for slices) and
// oneof=a|b. Empty values pass max and oneof; combine with required to forbid them.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		tag := field.Tag.Get("validate")

		if tag == "" {
			continue
		}

		name := fieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if err := validateField(name, value, rule); err != nil {
				return err
			}
		}
	}

	return nil
}

// fieldName prefers the JSON name so messages match the request body
func fieldName(field reflect.StructField) string {
	if name, _, _ := strings.Cut(field.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return field.Name
}

// validateField validates a single field based on a rule
func validateField(fieldName string, value reflect.Value, rule string) error {
	if value.Kind() == reflect.Ptr {
		if rule == "required" && value.IsNil() {
			return fmt.Errorf("%s is required", fieldName)
		}
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	switch {
	case rule == "required":
		if isZero(value) {
			return fmt.Errorf("%s is required", fieldName)
		}
	case strings.HasPrefix(rule, "max="):
		maxVal, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
		if err != nil {
			return fmt.Errorf("invalid rule %q on %s", rule, fieldName)
		}
		switch value.Kind() {
		case reflect.String:
			if utf8.RuneCountInString(value.String()) > maxVal {
				return fmt.Errorf("%s must be at most %d characters", fieldName, maxVal)
			}
		case reflect.Slice:
			if value.Len() > maxVal {
				return fmt.Errorf("%s must have at most %d entries", fieldName, maxVal)
			}
		}
	case strings.HasPrefix(rule, "oneof="):
		if value.Kind() != reflect.String || value.String() == "" {
			return nil
		}
		allowed := strings.Split(strings.TrimPrefix(rule, "oneof="), "|")
		for _, a := range allowed {
			if value.String() == a {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s", fieldName, strings.Join(allowed, ", "))
	}
	return nil
}

// isZero checks if a value is zero/empty
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	case reflect.Array:
		return v.IsZero()
	default:
		return false
	}
}

// SanitizeString removes null bytes, which Postgres rejects in text columns, and trims whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
