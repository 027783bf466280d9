package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report on the 'json' tag instead of the Go field name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldError names a request field and why it was rejected
type FieldError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ProblemResponse is an RFC 7807 problem-details body. The OAuth error
// code rides along in 'error' (plus 'scope' for insufficient_scope),
// per-field rejections in 'errors'.
type ProblemResponse struct {
	Status int          `json:"status"`
	Title  string       `json:"title"`
	Error  string       `json:"error,omitempty"`
	Scope  string       `json:"scope,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// JSONWithStatus sends data as json enforcing the status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	writeJSON(w, data, code, "application/json; charset=utf-8")
}

// Problem renders a problem-details body carrying a stable
// machine-readable OAuth error code
func Problem(w http.ResponseWriter, code int, oauthError string) {
	problem(w, ProblemResponse{Status: code, Title: http.StatusText(code), Error: oauthError})
}

// ProblemScope is Problem plus the scope the endpoint required, so a
// denied client can tell what to request next time
func ProblemScope(w http.ResponseWriter, code int, oauthError string, scope string) {
	problem(w, ProblemResponse{Status: code, Title: http.StatusText(code), Error: oauthError, Scope: scope})
}

// ProblemFields renders a problem-details body listing rejected fields
func ProblemFields(w http.ResponseWriter, code int, fields []FieldError) {
	problem(w, ProblemResponse{Status: code, Title: http.StatusText(code), Errors: fields})
}

// BindAndValidate decodes a JSON request body into T and validates it
// against its struct tags. Error responses are written here; callers
// only need to bail out on a non-nil error.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		reason := fmt.Sprintf("failed to parse JSON: %s", err.Error())
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			reason = fmt.Sprintf("invalid data type for field '%s'", typeErr.Field)
		}
		ProblemFields(w, http.StatusBadRequest, []FieldError{{Name: "body", Reason: reason}})
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// cast is safe: T is a struct, so failures are field errors
		errs := err.(validator.ValidationErrors)

		fields := make([]FieldError, 0, len(errs))
		for _, fieldError := range errs {
			fields = append(fields, FieldError{Name: fieldError.Field(), Reason: reasonFor(fieldError)})
		}
		ProblemFields(w, http.StatusUnprocessableEntity, fields)
		return value, err
	}

	return value, nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "email":
		return "is not a valid email address"
	default:
		return "is invalid"
	}
}

func problem(w http.ResponseWriter, data ProblemResponse) {
	writeJSON(w, data, data.Status, "application/problem+json; charset=utf-8")
}

func writeJSON(w http.ResponseWriter, data any, code int, contentType string) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
