// Package middleware provides net/http glue for validating JSON request
// bodies against a compiled schema before the handler runs.
package middleware

import (
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	jsv "github.com/jsv-go/jsv"
)

// ctxKeyDocument is the typed context key for the decoded request body.
type ctxKeyDocument struct{}

// ContextWithDocument attaches the decoded request body to the context.
func ContextWithDocument(ctx context.Context, doc any) context.Context {
	return context.WithValue(ctx, ctxKeyDocument{}, doc)
}

// DocumentFromContext retrieves the decoded request body stored by
// ValidateJSON. The boolean is false when the request did not pass through
// the middleware.
func DocumentFromContext(ctx context.Context) (any, bool) {
	v := ctx.Value(ctxKeyDocument{})
	return v, v != nil
}

// ErrorPayload shapes Issues for a JSON error response body.
func ErrorPayload(issues jsv.Issues) map[string]any {
	return map[string]any{"issues": issues}
}

// Options adjusts ValidateJSON.
type Options struct {
	// MaxBodyBytes caps the request body size. Zero means 1 MiB.
	MaxBodyBytes int64
	// Validate is forwarded per request (for example to mask values in
	// messages that end up in responses).
	Validate jsv.ValidateOpt
}

const defaultMaxBody = 1 << 20

// ValidateJSON decodes the request body as JSON, validates it against the
// schema and invokes next with the decoded document in the context. A body
// that is not JSON answers 400; a valid-JSON body that fails validation
// answers 422 with the issue list.
func ValidateJSON(schema *jsv.Schema, opt Options, next http.Handler) http.Handler {
	limit := opt.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			writeError(w, http.StatusBadRequest, "request body is not valid JSON")
			return
		}
		if err := schema.Validate(doc, opt.Validate); err != nil {
			iss, _ := jsv.AsIssues(err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(ErrorPayload(iss))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithDocument(r.Context(), doc)))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
