// Package problem implements the RFC 7807 style error envelope every
// failing response carries, plus the typed domain errors the service
// layer returns.
package problem

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Kind classifies a domain failure independently of transport.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindInternal
)

func (k Kind) status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed domain error. Fields is only populated for
// validation failures.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a domain error of the given kind.
func E(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func NotFound(detail string) *Error     { return E(KindNotFound, detail) }
func BadRequest(detail string) *Error   { return E(KindBadRequest, detail) }
func Conflict(detail string) *Error     { return E(KindConflict, detail) }
func Unauthorized(detail string) *Error { return E(KindUnauthorized, detail) }
func Forbidden(detail string) *Error    { return E(KindForbidden, detail) }

// Internal wraps an unexpected failure. The cause is logged, never rendered.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Detail: "An unexpected error occurred", cause: cause}
}

// Validation builds a 400 with a per-field error map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindBadRequest, Detail: "Validation error", Fields: fields}
}

// Detail is the wire envelope. Type follows the
// https://api.finsight.com/errors/<status> convention.
type Detail struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    int               `json:"status"`
	Detail    string            `json:"detail"`
	Timestamp time.Time         `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Render maps any error to a problem response. Unrecognised errors become
// a 500 and are logged with a correlation id.
func Render(w http.ResponseWriter, r *http.Request, err error) {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = Internal(err)
	}

	status := pe.Kind.status()
	if status >= http.StatusInternalServerError {
		cid := correlationID()
		log.Printf("[ERROR] cid=%s %s %s: %v", cid, r.Method, r.URL.Path, err)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	write(w, status, pe.Detail, pe.Fields)
}

// RenderStatus writes an envelope for a bare status, used where no domain
// error exists (unmatched routes, method not allowed).
func RenderStatus(w http.ResponseWriter, status int, detail string) {
	write(w, status, detail, nil)
}

func write(w http.ResponseWriter, status int, detail string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Detail{
		Type:      fmt.Sprintf("https://api.finsight.com/errors/%d", status),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
		Errors:    fields,
	})
}

func correlationID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
