// Package handlers adapts HTTP to the service layer: decode, validate,
// call, render. All error paths go through the problem envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/problem"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Validator wraps go-playground/validator with json field names and
// decimal support so `gt=0` applies to fixed-point amounts.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{validate: v}
}

// Check validates a DTO and converts failures into the field-keyed
// 400 problem.
func (v *Validator) Check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return problem.BadRequest("Invalid request body")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return problem.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation on '%s'", fe.Field(), fe.Tag())
	}
}

// decodeJSON decodes a single JSON object, rejecting oversized bodies,
// unknown fields and trailing content.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return problem.BadRequest("Invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return problem.BadRequest("Request body must only contain a single JSON object")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, problem.BadRequest(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return id, nil
}

// principalFrom returns the verified principal; the authenticator
// guarantees its presence on /api routes.
func principalFrom(r *http.Request) (*auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, problem.Unauthorized("Authentication required")
	}
	return p, nil
}

// Healthz is the public liveness endpoint.
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct{}{})
}

// NotFoundHandler covers unmatched routes with the problem envelope.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	problem.RenderStatus(w, http.StatusNotFound, "Resource not found")
}

// MethodNotAllowedHandler covers unsupported methods on known routes.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	problem.RenderStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
}
