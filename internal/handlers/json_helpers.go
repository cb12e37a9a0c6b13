package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"decision-hub/internal/apperror"
	"decision-hub/pkg/validator"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// JSONResponse sends a JSON response and ensures slices are never null.
//
// Nil slices would otherwise be encoded as null, which clients expecting arrays
// have to special-case. Always use this instead of json.NewEncoder(w).Encode().
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalized)
}

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		elem := v.Elem()

		if elem.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}

		normalized := normalizeSlices(elem.Interface())

		result := reflect.New(elem.Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()
	}

	if v.Kind() == reflect.Slice {
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}

		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			normalized := normalizeSlices(v.Index(i).Interface())
			result.Index(i).Set(reflect.ValueOf(normalized))
		}
		return result.Interface()
	}

	// Map values are normalized too, since the team weights are keyed by user
	if v.Kind() == reflect.Map {
		if v.IsNil() {
			return reflect.MakeMap(v.Type()).Interface()
		}

		result := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			normalized := normalizeSlices(iter.Value().Interface())
			result.SetMapIndex(iter.Key(), reflect.ValueOf(normalized))
		}
		return result.Interface()
	}

	// Structs: only normalize slice-bearing fields, keep other fields as-is
	if v.Kind() == reflect.Struct {
		if v.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}

		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !v.Type().Field(i).IsExported() {
				continue
			}

			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct, reflect.Map:
				if field.Type() == reflect.TypeOf(&time.Time{}) {
					result.Field(i).Set(field)
					continue
				}
				result.Field(i).Set(reflect.ValueOf(normalizeSlices(field.Interface())))
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}

	return data
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(normalizeSlices(payload)); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondError maps a service error to its status code and body.
// Storage failures are logged with their cause and reported generically.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)
	if status >= http.StatusInternalServerError && kind != apperror.KindOracleFailure {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else if kind == apperror.KindOracleFailure {
		slog.Warn("AI evaluation failed", "path", r.URL.Path, "error", err)
	}

	respondWithJSON(w, status, ErrorResponse{Error: apperror.Message(err), Code: string(kind)})
}

// decodeJSON decodes and validates the request body into dst.
// It writes a 400 response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, ErrMsgBodyTooLarge)
			return false
		}
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	if err := validator.ValidateStruct(dst); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(apperror.KindValidation)})
		return false
	}
	return true
}
